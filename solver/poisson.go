package solver

import (
	"fmt"
	"math"
	"strings"

	"inkflow/field"
)

// Method selects the Poisson relaxation scheme.
type Method uint8

const (
	// SOR is red-black successive over-relaxation, the reference scheme:
	// fastest converging and parallel within each colour.
	SOR Method = iota
	// GaussSeidel is SOR with omega fixed at 1 and a plain row-major sweep.
	GaussSeidel
	// Jacobi writes each sweep into a scratch field and swaps, trading
	// convergence speed for a fully order-independent update.
	Jacobi
)

func (m Method) String() string {
	switch m {
	case SOR:
		return "sor"
	case GaussSeidel:
		return "gauss-seidel"
	case Jacobi:
		return "jacobi"
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// ParseMethod maps a config string onto a Method.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(s) {
	case "sor":
		return SOR, nil
	case "gauss-seidel", "gauss_seidel":
		return GaussSeidel, nil
	case "jacobi":
		return Jacobi, nil
	}
	return SOR, fmt.Errorf("unknown poisson method %q", s)
}

// OptimalOmega returns the theoretically optimal SOR relaxation factor for
// an n×n grid, 2/(1+sin(π/n)).
func OptimalOmega(n int) float32 {
	return float32(2 / (1 + math.Sin(math.Pi/float64(n))))
}

// PoissonSolver iteratively solves ∇²p = d under the Clone (homogeneous
// Neumann) pressure boundary. The Jacobi scratch field is allocated at
// construction; Solve allocates no field buffers and never fails — a bad omega or a
// zero iteration count just yields a poor approximation.
type PoissonSolver struct {
	Method Method
	Iters  int
	Omega  float32

	scratch *field.Field[field.Scalar]
}

// NewPoissonSolver builds a solver for ni×nj grids. omega <= 0 selects the
// optimal SOR factor for the larger grid axis.
func NewPoissonSolver(ni, nj int, method Method, iters int, omega float32) *PoissonSolver {
	if omega <= 0 {
		omega = OptimalOmega(max(ni, nj))
	}
	s := &PoissonSolver{Method: method, Iters: iters, Omega: omega}
	if method == Jacobi {
		s.scratch = field.New[field.Scalar](ni, nj, field.Clone)
	}
	return s
}

// Solve writes the pressure solution into p, starting from zero. The answer
// is defined only up to an additive constant.
func (s *PoissonSolver) Solve(p, d *field.Field[field.Scalar]) {
	switch s.Method {
	case GaussSeidel:
		solveGaussSeidel(p, d, s.Iters)
	case Jacobi:
		s.solveJacobi(p, d)
	default:
		SolvePoisson(p, d, s.Iters, s.Omega)
	}
}

func checkPoissonArgs(p, d *field.Field[field.Scalar]) {
	mustMatch2(p.Ni, p.Nj, d.Ni, d.Nj)
	if p.BC != field.Clone {
		panic(fmt.Sprintf("solver: pressure field must have a clone boundary, got %v", p.BC))
	}
}

// SolvePoisson runs iters sweeps of red-black SOR on ∇²p = d with
// relaxation factor omega. Each sweep updates the black cells (even i+j)
// then the red cells, refreshing p's ghost layer between colours so that
// wall-adjacent cells always read a consistent Neumann ghost.
func SolvePoisson(p, d *field.Field[field.Scalar], iters int, omega float32) {
	checkPoissonArgs(p, d)

	var zero field.Scalar
	p.Fill(zero)

	ps := p.Values()
	pn := p.Stride()
	ds := d.Values()
	dn := d.Stride()

	for k := 0; k < iters; k++ {
		for colour := 0; colour <= 1; colour++ {
			parallelRows(0, p.Ni, func(i int) {
				up := i*pn + 1
				mid := (i+1)*pn + 1
				down := (i+2)*pn + 1
				drow := (i+1)*dn + 1
				for j := (colour + i) % 2; j < p.Nj; j += 2 {
					sum := ps[up+j] + ps[down+j] + ps[mid+j-1] + ps[mid+j+1]
					g := (sum - ds[drow+j]) / 4
					ps[mid+j] = ps[mid+j]*field.Scalar(1-omega) + g.Scale(omega)
				}
			})
			p.UpdateBoundary()
		}
	}
}

// solveGaussSeidel is the omega = 1 variant with a plain row-major sweep.
// Sequential by construction: each cell reads neighbours already updated
// this sweep.
func solveGaussSeidel(p, d *field.Field[field.Scalar], iters int) {
	checkPoissonArgs(p, d)

	var zero field.Scalar
	p.Fill(zero)

	ps := p.Values()
	pn := p.Stride()
	ds := d.Values()
	dn := d.Stride()

	for k := 0; k < iters; k++ {
		for i := 0; i < p.Ni; i++ {
			up := i*pn + 1
			mid := (i+1)*pn + 1
			down := (i+2)*pn + 1
			drow := (i+1)*dn + 1
			for j := 0; j < p.Nj; j++ {
				sum := ps[up+j] + ps[down+j] + ps[mid+j-1] + ps[mid+j+1]
				ps[mid+j] = (sum - ds[drow+j]) / 4
			}
		}
		p.UpdateBoundary()
	}
}

// solveJacobi sweeps into the scratch field and swaps buffers at the end of
// each iteration, so every read within a sweep sees the previous iterate.
func (s *PoissonSolver) solveJacobi(p, d *field.Field[field.Scalar]) {
	checkPoissonArgs(p, d)
	mustMatch2(p.Ni, p.Nj, s.scratch.Ni, s.scratch.Nj)

	var zero field.Scalar
	p.Fill(zero)

	dn := d.Stride()
	ds := d.Values()

	for k := 0; k < s.Iters; k++ {
		ps := p.Values()
		pn := p.Stride()
		next := s.scratch.Values()
		parallelRows(0, p.Ni, func(i int) {
			up := i*pn + 1
			mid := (i+1)*pn + 1
			down := (i+2)*pn + 1
			drow := (i+1)*dn + 1
			for j := 0; j < p.Nj; j++ {
				sum := ps[up+j] + ps[down+j] + ps[mid+j-1] + ps[mid+j+1]
				next[mid+j] = (sum - ds[drow+j]) / 4
			}
		})
		p.Swap(s.scratch)
		p.UpdateBoundary()
	}
}
