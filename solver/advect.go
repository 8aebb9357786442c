// Package solver implements the operator-split stable-fluids update: semi-
// Lagrangian advection, central-difference divergence and gradient stencils,
// and an iterative Poisson projection, all over the ghost-cell grids in
// package field.
package solver

import (
	"fmt"

	"inkflow/field"
)

// Advect traces every interior cell of out backwards through vel by -v·dt
// and samples in bilinearly at the source point. out, in and vel must share
// the interior shape; out must be a distinct field (the write order is
// unspecified, so aliasing in would read already-overwritten cells).
// Refreshes out's ghosts when done.
func Advect[T field.Element[T]](out, in *field.Field[T], vel *field.Field[field.Vec2], dt float32) {
	if out == in {
		panic("solver: advect output aliases its input")
	}
	mustMatch3(out.Ni, out.Nj, in.Ni, in.Nj, vel.Ni, vel.Nj)
	if in.BC == field.DontCare {
		panic("solver: advect source field has a dontcare boundary")
	}

	vels := vel.Values()
	vn := vel.Stride()
	outs := out.Values()
	on := out.Stride()

	parallelRows(0, out.Ni, func(i int) {
		vrow := (i+1)*vn + 1
		orow := (i+1)*on + 1
		for j := 0; j < out.Nj; j++ {
			v := vels[vrow+j]
			si := float32(i) - dt*v.X
			sj := float32(j) - dt*v.Y
			outs[orow+j] = field.Sample(in, si, sj)
		}
	})
	out.UpdateBoundary()
}

func mustMatch3(ni0, nj0, ni1, nj1, ni2, nj2 int) {
	if ni0 != ni1 || nj0 != nj1 || ni0 != ni2 || nj0 != nj2 {
		panic(fmt.Sprintf("solver: field shapes differ: %dx%d, %dx%d, %dx%d",
			ni0, nj0, ni1, nj1, ni2, nj2))
	}
}
