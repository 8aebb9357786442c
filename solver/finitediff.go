package solver

import (
	"fmt"

	"inkflow/field"
)

// Divergence writes the central-difference divergence of vel into out:
//
//	out(i,j) = (v(i+1,j).X - v(i-1,j).X + v(i,j+1).Y - v(i,j-1).Y) / 2
//
// The stencil reads vel's ghost layer, which is why velocity carries the
// Negative (no-slip) boundary. Refreshes out's ghosts when done.
func Divergence(out *field.Field[field.Scalar], vel *field.Field[field.Vec2]) {
	mustMatch2(out.Ni, out.Nj, vel.Ni, vel.Nj)
	if vel.BC == field.DontCare {
		panic("solver: divergence input has a dontcare boundary")
	}

	vels := vel.Values()
	vn := vel.Stride()
	outs := out.Values()
	on := out.Stride()

	parallelRows(0, out.Ni, func(i int) {
		up := i*vn + 1
		mid := (i+1)*vn + 1
		down := (i+2)*vn + 1
		orow := (i+1)*on + 1
		for j := 0; j < out.Nj; j++ {
			di := vels[down+j].X - vels[up+j].X
			dj := vels[mid+j+1].Y - vels[mid+j-1].Y
			outs[orow+j] = field.Scalar((di + dj) / 2)
		}
	})
	out.UpdateBoundary()
}

// SubtractGradient subtracts the central-difference gradient of p from vel
// in place, completing the pressure projection:
//
//	v(i,j).X -= (p(i+1,j) - p(i-1,j)) / 2
//	v(i,j).Y -= (p(i,j+1) - p(i,j-1)) / 2
//
// Reads p's ghost layer (pressure carries Clone, zero normal derivative) and
// refreshes vel's ghosts when done.
func SubtractGradient(vel *field.Field[field.Vec2], p *field.Field[field.Scalar]) {
	mustMatch2(vel.Ni, vel.Nj, p.Ni, p.Nj)
	if p.BC == field.DontCare {
		panic("solver: gradient input has a dontcare boundary")
	}

	ps := p.Values()
	pn := p.Stride()
	vels := vel.Values()
	vn := vel.Stride()

	parallelRows(0, vel.Ni, func(i int) {
		up := i*pn + 1
		mid := (i+1)*pn + 1
		down := (i+2)*pn + 1
		vrow := (i+1)*vn + 1
		for j := 0; j < vel.Nj; j++ {
			gx := float32(ps[down+j]-ps[up+j]) / 2
			gy := float32(ps[mid+j+1]-ps[mid+j-1]) / 2
			v := vels[vrow+j]
			vels[vrow+j] = field.Vec2{X: v.X - gx, Y: v.Y - gy}
		}
	})
	vel.UpdateBoundary()
}

func mustMatch2(ni0, nj0, ni1, nj1 int) {
	if ni0 != ni1 || nj0 != nj1 {
		panic(fmt.Sprintf("solver: field shapes differ: %dx%d vs %dx%d", ni0, nj0, ni1, nj1))
	}
}
