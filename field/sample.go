package field

import (
	"fmt"
	"math"
)

// floor32 is a true mathematical floor: floor32(-0.3) == -1.
func floor32(x float32) int {
	return int(math.Floor(float64(x)))
}

func lerp[T Element[T]](t float32, a, b T) T {
	return a.Scale(1 - t).Add(b.Scale(t))
}

// Bilerp interpolates between four cell values with fractional offsets
// (di, dj) measured from p11 toward p21 and p12 respectively.
func Bilerp[T Element[T]](di, dj float32, p11, p12, p21, p22 T) T {
	return lerp(di, lerp(dj, p11, p12), lerp(dj, p21, p22))
}

// Sample returns the bilinearly interpolated value of f at the fractional
// grid coordinate (si, sj). Coordinates are clamped to the wall midplanes
// [-0.5, N-0.5], so every sample stays a total function and reads at most
// one ghost cell in each axis; the caller must have the ghost layer up to
// date. Sampling a DontCare field is a programmer error.
func Sample[T Element[T]](f *Field[T], si, sj float32) T {
	if f.BC == DontCare {
		panic(fmt.Sprintf("field: sampling a %v field", f.BC))
	}

	if si < -0.5 {
		si = -0.5
	}
	if hi := float32(f.Ni) - 0.5; si > hi {
		si = hi
	}
	if sj < -0.5 {
		sj = -0.5
	}
	if hi := float32(f.Nj) - 0.5; sj > hi {
		sj = hi
	}

	i0 := floor32(si)
	j0 := floor32(sj)
	di := si - float32(i0)
	dj := sj - float32(j0)

	base := f.idx(i0, j0)
	n := f.stride
	return Bilerp(di, dj,
		f.cells[base], f.cells[base+1],
		f.cells[base+n], f.cells[base+n+1])
}
