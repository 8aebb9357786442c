package solver

import (
	"testing"

	"inkflow/field"
)

func newBenchSim(n int) *Sim {
	sim := NewSim(n, n, SOR, 10, 0)
	sim.AddTracer("dye")
	seedStepField(sim.Velocity())
	return sim
}

func BenchmarkStep64(b *testing.B) {
	sim := newBenchSim(64)
	dt := float32(1.0 / 120.0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sim.Step(dt)
	}
}

func BenchmarkStep256(b *testing.B) {
	sim := newBenchSim(256)
	dt := float32(1.0 / 120.0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sim.Step(dt)
	}
}

func BenchmarkPoissonSOR(b *testing.B) {
	const n = 128
	d := smoothRHS(n)
	p := field.New[field.Scalar](n, n, field.Clone)
	omega := OptimalOmega(n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SolvePoisson(p, d, 30, omega)
	}
}

func BenchmarkAdvect(b *testing.B) {
	const n = 128
	in := field.New[field.Scalar](n, n, field.Clone)
	out := field.New[field.Scalar](n, n, field.Clone)
	in.Fill(1)
	vel := field.New[field.Vec2](n, n, field.Negative)
	seedStepField(vel)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Advect(out, in, vel, 0.01)
	}
}
