package solver

import (
	"fmt"
	"math"

	"inkflow/field"
)

// ForceFunc mutates the velocity field between advection and projection.
// Implementations write interior cells; Step refreshes the ghost layer after
// all hooks have run.
type ForceFunc func(vel *field.Field[field.Vec2], dt float32)

// Tracer is a passively advected scalar field (dye, temperature markers)
// with its own double buffer.
type Tracer struct {
	Name string
	F    *field.Field[field.Scalar]

	tmp *field.Field[field.Scalar]
}

// Sim owns the simulation state: velocity with its scratch twin, pressure,
// divergence, and any number of tracers. All fields are allocated at
// construction; a Step allocates no field buffers and swaps buffers instead
// of copying.
type Sim struct {
	Ni, Nj int

	vel    *field.Field[field.Vec2]
	velTmp *field.Field[field.Vec2]
	press  *field.Field[field.Scalar]
	div    *field.Field[field.Scalar]

	tracers []*Tracer
	poisson *PoissonSolver
	forces  []ForceFunc

	phase      func(name string)
	lastPreDiv float32
}

// NewSim builds a simulation over an ni×nj interior. Velocity starts at
// zero with no-slip walls; pressure carries the Neumann (Clone) boundary.
func NewSim(ni, nj int, method Method, iters int, omega float32) *Sim {
	s := &Sim{
		Ni:      ni,
		Nj:      nj,
		vel:     field.New[field.Vec2](ni, nj, field.Negative),
		velTmp:  field.New[field.Vec2](ni, nj, field.Negative),
		press:   field.New[field.Scalar](ni, nj, field.Clone),
		div:     field.New[field.Scalar](ni, nj, field.Clone),
		poisson: NewPoissonSolver(ni, nj, method, iters, omega),
	}
	s.vel.Fill(field.Vec2{})
	s.press.Fill(0)
	return s
}

// Velocity returns the live velocity field.
func (s *Sim) Velocity() *field.Field[field.Vec2] { return s.vel }

// Pressure returns the pressure field from the most recent projection.
func (s *Sim) Pressure() *field.Field[field.Scalar] { return s.press }

// Omega reports the resolved relaxation factor.
func (s *Sim) Omega() float32 { return s.poisson.Omega }

// SetOmega overrides the relaxation factor. Values outside (0,2) degrade or
// stall convergence; the solver does not diagnose this.
func (s *Sim) SetOmega(omega float32) { s.poisson.Omega = omega }

// Iters reports the configured relaxation sweep count.
func (s *Sim) Iters() int { return s.poisson.Iters }

// SetIters overrides the relaxation sweep count.
func (s *Sim) SetIters(iters int) { s.poisson.Iters = iters }

// Reset zeroes velocity, pressure and all tracers.
func (s *Sim) Reset() {
	s.vel.Fill(field.Vec2{})
	s.press.Fill(0)
	s.div.Fill(0)
	for _, t := range s.tracers {
		t.F.Fill(0)
	}
}

// AddTracer registers a named passive scalar field with Clone walls and
// returns it. Tracers advect after the velocity update, in insertion order.
func (s *Sim) AddTracer(name string) *Tracer {
	t := &Tracer{
		Name: name,
		F:    field.New[field.Scalar](s.Ni, s.Nj, field.Clone),
		tmp:  field.New[field.Scalar](s.Ni, s.Nj, field.Clone),
	}
	t.F.Fill(0)
	s.tracers = append(s.tracers, t)
	return t
}

// Tracer returns the named tracer, or nil.
func (s *Sim) Tracer(name string) *Tracer {
	for _, t := range s.tracers {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Tracers returns the registered tracers in step order.
func (s *Sim) Tracers() []*Tracer { return s.tracers }

// OnForces registers a hook run between velocity advection and projection.
func (s *Sim) OnForces(fn ForceFunc) {
	s.forces = append(s.forces, fn)
}

// OnPhase registers a callback invoked with a phase name as Step enters each
// stage; wired to the telemetry perf collector by the drivers.
func (s *Sim) OnPhase(fn func(name string)) {
	s.phase = fn
}

func (s *Sim) enterPhase(name string) {
	if s.phase != nil {
		s.phase(name)
	}
}

// LastPreProjectionDiv returns the max absolute divergence observed by the
// most recent Project call, before the pressure solve.
func (s *Sim) LastPreProjectionDiv() float32 { return s.lastPreDiv }

// AddForce accumulates an impulse into a single interior velocity cell. The
// caller (or the enclosing Step) is responsible for the boundary refresh
// once all impulses for the tick are in.
func (s *Sim) AddForce(i, j int, f field.Vec2) {
	if i < 0 || i >= s.Ni || j < 0 || j >= s.Nj {
		panic(fmt.Sprintf("solver: force at (%d,%d) outside %dx%d interior", i, j, s.Ni, s.Nj))
	}
	s.vel.Set(i, j, s.vel.At(i, j).Add(f))
}

// AddForceRadius spreads an impulse over a disc with Gaussian falloff, about
// 5% strength at the rim. Cells outside the interior are skipped.
func (s *Sim) AddForceRadius(ci, cj int, f field.Vec2, radius int) {
	if radius <= 0 {
		if ci >= 0 && ci < s.Ni && cj >= 0 && cj < s.Nj {
			s.AddForce(ci, cj, f)
		}
		return
	}
	r2 := float32(radius * radius)
	for i := ci - radius; i <= ci+radius; i++ {
		if i < 0 || i >= s.Ni {
			continue
		}
		for j := cj - radius; j <= cj+radius; j++ {
			if j < 0 || j >= s.Nj {
				continue
			}
			di := float32(i - ci)
			dj := float32(j - cj)
			d2 := di*di + dj*dj
			if d2 > r2 {
				continue
			}
			w := float32(math.Exp(float64(-3 * d2 / r2)))
			s.AddForce(i, j, f.Scale(w))
		}
	}
}

// Step advances the simulation by dt: velocity self-advection, force hooks,
// pressure projection, then tracer advection. The stencil order is fixed;
// none of the stages commute.
func (s *Sim) Step(dt float32) {
	s.enterPhase("advect")
	Advect(s.velTmp, s.vel, s.vel, dt)
	s.vel.Swap(s.velTmp)

	if len(s.forces) > 0 {
		s.enterPhase("forces")
		for _, fn := range s.forces {
			fn(s.vel, dt)
		}
		s.vel.UpdateBoundary()
	}

	s.enterPhase("project")
	s.Project()

	s.enterPhase("tracers")
	for _, t := range s.tracers {
		Advect(t.tmp, t.F, s.vel, dt)
		t.F.Swap(t.tmp)
	}
}

// Project removes the divergent component of the velocity field:
// div ← ∇·v, solve ∇²p = div, v ← v − ∇p.
func (s *Sim) Project() {
	Divergence(s.div, s.vel)
	s.lastPreDiv = maxAbsInterior(s.div)
	s.poisson.Solve(s.press, s.div)
	SubtractGradient(s.vel, s.press)
}

func maxAbsInterior(f *field.Field[field.Scalar]) float32 {
	var m float32
	vals := f.Values()
	n := f.Stride()
	for i := 0; i < f.Ni; i++ {
		row := vals[(i+1)*n+1 : (i+1)*n+1+f.Nj]
		for _, v := range row {
			if a := float32(math.Abs(float64(v))); a > m {
				m = a
			}
		}
	}
	return m
}

// MaxDivergence recomputes ∇·v and returns its max absolute interior value.
func (s *Sim) MaxDivergence() float32 {
	Divergence(s.div, s.vel)
	return maxAbsInterior(s.div)
}

// DivergenceInto recomputes ∇·v and appends the interior row-major into dst
// as float64, for the residual statistics. Returns the extended slice.
func (s *Sim) DivergenceInto(dst []float64) []float64 {
	Divergence(s.div, s.vel)
	for i := 0; i < s.Ni; i++ {
		for j := 0; j < s.Nj; j++ {
			dst = append(dst, float64(s.div.At(i, j)))
		}
	}
	return dst
}
