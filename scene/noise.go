package scene

import (
	opensimplex "github.com/ojrac/opensimplex-go"

	"inkflow/field"
)

// SeedVelocity fills vel's interior with smooth divergence-carrying simplex
// noise: two independent channels, peak magnitude per component amplitude.
// The projection step is expected to clean up the divergence on the first
// tick; this exists to give runs (and tests) a reproducible non-trivial
// start.
func SeedVelocity(vel *field.Field[field.Vec2], seed int64, scale, amplitude float32) {
	if scale <= 0 {
		scale = 16
	}
	n := opensimplex.New(seed)
	inv := 1 / float64(scale)
	for i := 0; i < vel.Ni; i++ {
		for j := 0; j < vel.Nj; j++ {
			x := float64(i) * inv
			y := float64(j) * inv
			vi := float32(n.Eval2(x, y)) * amplitude
			vj := float32(n.Eval2(x+137.3, y+71.7)) * amplitude
			vel.Set(i, j, field.Vec2{X: vi, Y: vj})
		}
	}
	vel.UpdateBoundary()
}

// SeedTracer fills a tracer's interior with normalized simplex noise in
// [0, amplitude].
func SeedTracer(f *field.Field[field.Scalar], seed int64, scale, amplitude float32) {
	if scale <= 0 {
		scale = 16
	}
	n := opensimplex.NewNormalized(seed)
	inv := 1 / float64(scale)
	for i := 0; i < f.Ni; i++ {
		for j := 0; j < f.Nj; j++ {
			v := float32(n.Eval2(float64(i)*inv, float64(j)*inv)) * amplitude
			f.Set(i, j, field.Scalar(v))
		}
	}
	f.UpdateBoundary()
}
