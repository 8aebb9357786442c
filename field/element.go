package field

import "strconv"

// Element is the cell arithmetic a Field requires of its value type. Two
// instantiations cover the whole engine: Scalar for pressure, divergence and
// dye, Vec2 for velocity.
type Element[T any] interface {
	Add(T) T
	Sub(T) T
	Scale(float32) T
	Neg() T
	Format(prec int) string
}

// Scalar is a single-component cell value. The engine runs in float32
// throughout; the documented tolerances assume this precision.
type Scalar float32

func (s Scalar) Add(o Scalar) Scalar    { return s + o }
func (s Scalar) Sub(o Scalar) Scalar    { return s - o }
func (s Scalar) Scale(k float32) Scalar { return s * Scalar(k) }
func (s Scalar) Neg() Scalar            { return -s }

// Format renders the value with the given number of decimals, or shortest
// round-trip form when prec is negative.
func (s Scalar) Format(prec int) string {
	return strconv.FormatFloat(float64(s), 'f', prec, 32)
}

// Vec2 is a two-component cell value. X is the component along the row axis
// i, Y along the column axis j, both in cells per unit time. Every stencil in
// this module uses this one axis convention.
type Vec2 struct {
	X, Y float32
}

func (v Vec2) Add(o Vec2) Vec2    { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2    { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(k float32) Vec2 { return Vec2{v.X * k, v.Y * k} }
func (v Vec2) Neg() Vec2          { return Vec2{-v.X, -v.Y} }

func (v Vec2) Format(prec int) string {
	return strconv.FormatFloat(float64(v.X), 'f', prec, 32) + "," +
		strconv.FormatFloat(float64(v.Y), 'f', prec, 32)
}
