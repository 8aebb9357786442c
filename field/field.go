// Package field implements the ghost-cell grid the fluid engine runs on: a
// row-major 2-D buffer with one layer of ghost cells on every side, refilled
// from a per-field boundary condition, plus the bilinear sampler the
// advection stencil reads through.
package field

import (
	"fmt"
	"strings"
)

// BoundaryCondition states how the ghost layer is populated from the
// neighbouring interior cells.
type BoundaryCondition uint8

const (
	// DontCare leaves the ghost layer untouched. Only legal for scratch
	// fields whose consumers read interior cells exclusively.
	DontCare BoundaryCondition = iota
	// Clone copies the nearest interior neighbour into each ghost cell
	// (zero normal derivative; used for pressure and dye).
	Clone
	// Negative writes the negated interior neighbour, placing a zero at the
	// half-cell wall midplane (no-slip; used for velocity).
	Negative
)

func (bc BoundaryCondition) String() string {
	switch bc {
	case DontCare:
		return "dontcare"
	case Clone:
		return "clone"
	case Negative:
		return "negative"
	}
	return fmt.Sprintf("BoundaryCondition(%d)", uint8(bc))
}

// ParseBC maps a config string onto a BoundaryCondition.
func ParseBC(s string) (BoundaryCondition, error) {
	switch strings.ToLower(s) {
	case "dontcare":
		return DontCare, nil
	case "clone":
		return Clone, nil
	case "negative":
		return Negative, nil
	}
	return DontCare, fmt.Errorf("unknown boundary condition %q", s)
}

// Field is a grid of Ni×Nj interior cells padded by one ghost layer, so that
// indices i ∈ [-1, Ni], j ∈ [-1, Nj] are always addressable. The backing
// buffer is a single contiguous slice; interior (i, j) lives at offset
// (i+1)*(Nj+2) + (j+1).
type Field[T Element[T]] struct {
	Ni, Nj int
	BC     BoundaryCondition

	cells  []T
	stride int // Nj + 2
}

// New allocates a field of the given interior shape. Interior contents are
// unspecified until written.
func New[T Element[T]](ni, nj int, bc BoundaryCondition) *Field[T] {
	if ni < 1 || nj < 1 {
		panic(fmt.Sprintf("field: invalid shape %dx%d", ni, nj))
	}
	return &Field[T]{
		Ni:     ni,
		Nj:     nj,
		BC:     bc,
		cells:  make([]T, (ni+2)*(nj+2)),
		stride: nj + 2,
	}
}

// idx maps (i, j) to a flat offset without bounds checking; callers inside
// the package stay within [-1, N].
func (f *Field[T]) idx(i, j int) int {
	return (i+1)*f.stride + (j + 1)
}

// Idx returns the flat offset of (i, j) in Values, ghost cells included.
// Out-of-range indices are a programmer error.
func (f *Field[T]) Idx(i, j int) int {
	if i < -1 || i > f.Ni || j < -1 || j > f.Nj {
		panic(fmt.Sprintf("field: index (%d,%d) out of range for %dx%d grid", i, j, f.Ni, f.Nj))
	}
	return f.idx(i, j)
}

// At reads the cell at (i, j); ghost cells are addressable at -1 and N.
func (f *Field[T]) At(i, j int) T {
	return f.cells[f.Idx(i, j)]
}

// Set writes the cell at (i, j).
func (f *Field[T]) Set(i, j int, v T) {
	f.cells[f.Idx(i, j)] = v
}

// Values exposes the backing buffer, ghosts included, for hot-path stencils
// that index it via Stride. Writers must call UpdateBoundary afterwards.
func (f *Field[T]) Values() []T {
	return f.cells
}

// Stride returns the flat-buffer row stride (Nj + 2).
func (f *Field[T]) Stride() int {
	return f.stride
}

// SameShape reports whether two fields have identical interior dimensions.
func (f *Field[T]) SameShape(ni, nj int) bool {
	return f.Ni == ni && f.Nj == nj
}

// UpdateBoundary refills the ghost layer from the interior according to the
// field's boundary condition. Edge ghosts take the interior neighbour times a
// sign factor (+1 for Clone, -1 for Negative); corner ghosts are always
// straight copies of the diagonal interior cell, which sidesteps the sign
// ambiguity where two walls meet.
func (f *Field[T]) UpdateBoundary() {
	if f.BC == DontCare {
		return
	}
	neg := f.BC == Negative
	ni, nj, n := f.Ni, f.Nj, f.stride
	c := f.cells

	edge := func(v T) T {
		if neg {
			return v.Neg()
		}
		return v
	}

	// Left and right columns (j = -1 and j = Nj).
	for i := 0; i < ni; i++ {
		row := (i + 1) * n
		c[row] = edge(c[row+1])
		c[row+nj+1] = edge(c[row+nj])
	}
	// Top and bottom rows (i = -1 and i = Ni).
	top := 0
	first := n
	bot := (ni + 1) * n
	last := ni * n
	for j := 1; j <= nj; j++ {
		c[top+j] = edge(c[first+j])
		c[bot+j] = edge(c[last+j])
	}

	// Corners copy the diagonal interior cell regardless of BC.
	c[f.idx(-1, -1)] = c[f.idx(0, 0)]
	c[f.idx(-1, nj)] = c[f.idx(0, nj-1)]
	c[f.idx(ni, -1)] = c[f.idx(ni-1, 0)]
	c[f.idx(ni, nj)] = c[f.idx(ni-1, nj-1)]
}

// AssignInterior copies Ni·Nj values in row-major order into the interior
// and refreshes the ghost layer.
func (f *Field[T]) AssignInterior(src []T) {
	if len(src) != f.Ni*f.Nj {
		panic(fmt.Sprintf("field: interior buffer has %d cells, want %d", len(src), f.Ni*f.Nj))
	}
	for i := 0; i < f.Ni; i++ {
		copy(f.cells[f.idx(i, 0):f.idx(i, f.Nj)], src[i*f.Nj:(i+1)*f.Nj])
	}
	f.UpdateBoundary()
}

// CopyFrom copies the interior of other into f and refreshes f's ghosts
// under f's own boundary condition.
func (f *Field[T]) CopyFrom(other *Field[T]) {
	f.mustMatchShape(other)
	for i := 0; i < f.Ni; i++ {
		copy(f.cells[f.idx(i, 0):f.idx(i, f.Nj)], other.cells[other.idx(i, 0):other.idx(i, f.Nj)])
	}
	f.UpdateBoundary()
}

// Swap exchanges the backing buffers of two fields of identical shape and
// boundary condition in O(1). This is the double-buffering primitive the
// step loop relies on; it never deep-copies.
func (f *Field[T]) Swap(other *Field[T]) {
	f.mustMatchShape(other)
	if f.BC != other.BC {
		panic(fmt.Sprintf("field: swap between %v and %v fields", f.BC, other.BC))
	}
	f.cells, other.cells = other.cells, f.cells
}

// Fill sets every interior cell to v and refreshes the ghosts.
func (f *Field[T]) Fill(v T) {
	for i := 0; i < f.Ni; i++ {
		row := f.cells[f.idx(i, 0):f.idx(i, f.Nj)]
		for j := range row {
			row[j] = v
		}
	}
	f.UpdateBoundary()
}

// Add accumulates other's interior into f, then refreshes ghosts.
func (f *Field[T]) Add(other *Field[T]) {
	f.mustMatchShape(other)
	f.eachInterior(other, func(a, b T) T { return a.Add(b) })
}

// Sub subtracts other's interior from f, then refreshes ghosts.
func (f *Field[T]) Sub(other *Field[T]) {
	f.mustMatchShape(other)
	f.eachInterior(other, func(a, b T) T { return a.Sub(b) })
}

// Scale multiplies every interior cell by k, then refreshes ghosts.
func (f *Field[T]) Scale(k float32) {
	f.eachInterior(f, func(a, _ T) T { return a.Scale(k) })
}

// Div divides every interior cell by k, then refreshes ghosts.
func (f *Field[T]) Div(k float32) {
	f.Scale(1 / k)
}

func (f *Field[T]) eachInterior(other *Field[T], op func(a, b T) T) {
	for i := 0; i < f.Ni; i++ {
		dst := f.cells[f.idx(i, 0):f.idx(i, f.Nj)]
		src := other.cells[other.idx(i, 0):other.idx(i, f.Nj)]
		for j := range dst {
			dst[j] = op(dst[j], src[j])
		}
	}
	f.UpdateBoundary()
}

func (f *Field[T]) mustMatchShape(other *Field[T]) {
	if f.Ni != other.Ni || f.Nj != other.Nj {
		panic(fmt.Sprintf("field: shape mismatch %dx%d vs %dx%d", f.Ni, f.Nj, other.Ni, other.Nj))
	}
}

// SerializeInterior renders the interior as whitespace-separated rows, one
// line per row, with prec decimals (-1 for shortest form). Used by the frame
// dump output, not by the numeric core.
func (f *Field[T]) SerializeInterior(prec int) string {
	var sb strings.Builder
	for i := 0; i < f.Ni; i++ {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for j := 0; j < f.Nj; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(f.cells[f.idx(i, j)].Format(prec))
		}
	}
	return sb.String()
}
