package solver

import (
	"math"
	"testing"

	"inkflow/field"
)

// l2Divergence returns the L² norm of the interior divergence of vel.
func l2Divergence(vel *field.Field[field.Vec2]) float64 {
	div := field.New[field.Scalar](vel.Ni, vel.Nj, field.Clone)
	Divergence(div, vel)
	var sum float64
	for i := 0; i < div.Ni; i++ {
		for j := 0; j < div.Nj; j++ {
			v := float64(div.At(i, j))
			sum += v * v
		}
	}
	return math.Sqrt(sum)
}

// gradientMode fills vel with the central-difference gradient of the lowest
// Neumann eigenmode, scaled to amp. Smooth, wall-compatible, and entirely
// divergent: the worst case the projection has to remove.
func gradientMode(vel *field.Field[field.Vec2], amp float64) {
	n := float64(vel.Ni)
	k := math.Pi / n
	s := math.Sin(k)
	for i := 0; i < vel.Ni; i++ {
		ui := k * (float64(i) + 0.5)
		for j := 0; j < vel.Nj; j++ {
			uj := k * (float64(j) + 0.5)
			// central difference of cos(ui)·cos(uj) along each axis
			vx := -amp * math.Sin(ui) * math.Cos(uj) * s
			vy := -amp * math.Cos(ui) * math.Sin(uj) * s
			vel.Set(i, j, field.Vec2{X: float32(vx), Y: float32(vy)})
		}
	}
	vel.UpdateBoundary()
}

func TestProjectionReducesDivergence(t *testing.T) {
	const n = 32
	// Negative walls: the odd sine structure of the mode matches the
	// no-slip ghosts exactly, so the divergence is smooth all the way to
	// the boundary rows.
	vel := field.New[field.Vec2](n, n, field.Negative)
	gradientMode(vel, 10)

	before := l2Divergence(vel)
	if before < 1e-3 {
		t.Fatalf("test field carries no divergence: %v", before)
	}

	div := field.New[field.Scalar](n, n, field.Clone)
	p := field.New[field.Scalar](n, n, field.Clone)
	Divergence(div, vel)
	SolvePoisson(p, div, 100, OptimalOmega(n))
	SubtractGradient(vel, p)

	after := l2Divergence(vel)
	if after*100 > before {
		t.Errorf("projection reduced L2 divergence %v -> %v, want at least 100x", before, after)
	}
}

func TestProjectionResidualMonotone(t *testing.T) {
	const n = 24
	vel := field.New[field.Vec2](n, n, field.Negative)
	gradientMode(vel, 8)

	div := field.New[field.Scalar](n, n, field.Clone)
	p := field.New[field.Scalar](n, n, field.Clone)

	project := func() {
		Divergence(div, vel)
		SolvePoisson(p, div, 100, OptimalOmega(n))
		SubtractGradient(vel, p)
	}

	r0 := l2Divergence(vel)
	project()
	r1 := l2Divergence(vel)
	project()
	r2 := l2Divergence(vel)

	if r1 > r0 || r2 > r1*1.01 {
		t.Errorf("residual not monotone: %v -> %v -> %v", r0, r1, r2)
	}
}

// seedStepField writes a wall-compatible velocity: a large discretely
// divergence-free swirl (the discrete curl of a streamfunction has exactly
// zero central divergence) plus a small divergent mode, peak speed about 1.
func seedStepField(vel *field.Field[field.Vec2]) {
	n := float64(vel.Ni)
	k := math.Pi / n
	s := math.Sin(k)
	swirl := 0.9 / s // |v| of the curl part peaks near 0.9

	for i := 0; i < vel.Ni; i++ {
		ui := k * (float64(i) + 0.5)
		for j := 0; j < vel.Nj; j++ {
			uj := k * (float64(j) + 0.5)
			// discrete curl of psi = swirl·sin(ui)·sin(uj)
			vx := swirl * math.Sin(ui) * math.Cos(uj) * s
			vy := -swirl * math.Cos(ui) * math.Sin(uj) * s
			// small divergent part
			vx += -0.5 * math.Sin(ui) * math.Cos(uj) * s
			vy += -0.5 * math.Cos(ui) * math.Sin(uj) * s
			vel.Set(i, j, field.Vec2{X: float32(vx), Y: float32(vy)})
		}
	}
	vel.UpdateBoundary()
}

func TestFullStepDivergenceFree(t *testing.T) {
	const n = 32
	sim := NewSim(n, n, SOR, 30, 1.85)
	seedStepField(sim.Velocity())

	sim.Step(0.1)

	if got := sim.MaxDivergence(); got > 1e-3 {
		t.Errorf("max |div| after one step = %v, want < 1e-3", got)
	}

	// A second step keeps the field clean.
	sim.Step(0.1)
	if got := sim.MaxDivergence(); got > 1e-3 {
		t.Errorf("max |div| after two steps = %v, want < 1e-3", got)
	}
}

func TestSimTracerAdvection(t *testing.T) {
	sim := NewSim(16, 16, SOR, 10, 0)
	dye := sim.AddTracer("dye")
	dye.F.Set(8, 8, 1)
	dye.F.UpdateBoundary()

	var total float32
	sum := func() float32 {
		var s float32
		for i := 0; i < 16; i++ {
			for j := 0; j < 16; j++ {
				s += float32(dye.F.At(i, j))
			}
		}
		return s
	}
	total = sum()

	sim.Step(0.01)

	// Velocity is zero and stays zero, so the dye must not move.
	if got := sum(); math.Abs(float64(got-total)) > 1e-5 {
		t.Errorf("dye mass changed under zero flow: %v -> %v", total, got)
	}
	if got := dye.F.At(8, 8); math.Abs(float64(got-1)) > 1e-6 {
		t.Errorf("dye cell = %v, want 1", got)
	}
}

func TestSimForceHookRuns(t *testing.T) {
	sim := NewSim(16, 16, SOR, 20, 0)
	called := 0
	sim.OnForces(func(vel *field.Field[field.Vec2], dt float32) {
		called++
		sim.AddForceRadius(8, 8, field.Vec2{X: 2 * dt}, 3)
	})

	sim.Step(0.1)

	if called != 1 {
		t.Fatalf("force hook ran %d times, want 1", called)
	}

	// The kick must have left momentum behind (projection preserves the
	// solenoidal part).
	var speed float64
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			v := sim.Velocity().At(i, j)
			speed += math.Abs(float64(v.X)) + math.Abs(float64(v.Y))
		}
	}
	if speed == 0 {
		t.Error("velocity still at rest after an impulse")
	}
}

func TestSimOmegaDefault(t *testing.T) {
	sim := NewSim(32, 32, SOR, 10, 0)
	want := OptimalOmega(32)
	if sim.Omega() != want {
		t.Errorf("omega = %v, want derived optimum %v", sim.Omega(), want)
	}

	sim2 := NewSim(32, 32, SOR, 10, 1.5)
	if sim2.Omega() != 1.5 {
		t.Errorf("omega = %v, want the configured 1.5", sim2.Omega())
	}
}

func TestSimReset(t *testing.T) {
	sim := NewSim(8, 8, SOR, 10, 0)
	dye := sim.AddTracer("dye")
	dye.F.Fill(1)
	seedStepField(sim.Velocity())
	sim.Step(0.05)

	sim.Reset()

	if got := sim.MaxDivergence(); got != 0 {
		t.Errorf("divergence after reset = %v, want 0", got)
	}
	if got := dye.F.At(3, 3); got != 0 {
		t.Errorf("tracer after reset = %v, want 0", got)
	}
}

func TestSimStepDoesNotAllocateFields(t *testing.T) {
	// Buffer swaps, not copies: the backing slices before and after a step
	// are the same set of arrays, just possibly exchanged.
	sim := NewSim(16, 16, SOR, 10, 0)
	dye := sim.AddTracer("dye")
	seedStepField(sim.Velocity())

	velBefore := &sim.Velocity().Values()[0]
	tmpBefore := &sim.velTmp.Values()[0]

	sim.Step(0.05)

	velAfter := &sim.Velocity().Values()[0]
	tmpAfter := &sim.velTmp.Values()[0]
	if !(velAfter == tmpBefore && tmpAfter == velBefore) {
		t.Error("step copied velocity buffers instead of swapping them")
	}
	_ = dye
}
