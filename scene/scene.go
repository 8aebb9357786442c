// Package scene drives a solver.Sim with configured dye emitters, timed
// velocity impulses, and noise-seeded initial conditions. Emitters and
// impulses live as ECS entities so drivers can add and remove them at run
// time without touching the solver.
package scene

import (
	"github.com/mlange-42/ark/ecs"

	"inkflow/config"
	"inkflow/field"
	"inkflow/solver"
)

// Emitter stamps dye into a named tracer every tick, with a parabolic
// falloff over its radius.
type Emitter struct {
	Tracer string
	I, J   int
	Radius int
	Rate   float32 // dye per second at the center; 0 = initial blob only
}

// Impulse is a velocity kick active over [Start, Start+Duration).
// Duration 0 keeps it active forever.
type Impulse struct {
	I, J     int
	Radius   int
	Force    field.Vec2 // cells per second²
	Start    float32
	Duration float32
}

// Scene owns the ECS world of emitters and impulses and the clock that
// gates them.
type Scene struct {
	world *ecs.World

	emitterMap *ecs.Map1[Emitter]
	impulseMap *ecs.Map1[Impulse]
	emitters   *ecs.Filter1[Emitter]
	impulses   *ecs.Filter1[Impulse]

	time float32
}

// New builds a scene from config. Call Setup to seed a Sim and register the
// force hook.
func New(cfg *config.SceneConfig) *Scene {
	world := ecs.NewWorld()
	s := &Scene{
		world:      world,
		emitterMap: ecs.NewMap1[Emitter](world),
		impulseMap: ecs.NewMap1[Impulse](world),
		emitters:   ecs.NewFilter1[Emitter](world),
		impulses:   ecs.NewFilter1[Impulse](world),
	}

	for _, e := range cfg.Emitters {
		s.AddEmitter(Emitter{
			Tracer: e.Tracer,
			I:      e.I,
			J:      e.J,
			Radius: e.Radius,
			Rate:   float32(e.Rate),
		})
	}
	for _, imp := range cfg.Impulses {
		s.AddImpulse(Impulse{
			I:        imp.I,
			J:        imp.J,
			Radius:   imp.Radius,
			Force:    field.Vec2{X: float32(imp.FX), Y: float32(imp.FY)},
			Start:    float32(imp.Start),
			Duration: float32(imp.Duration),
		})
	}
	return s
}

// AddEmitter registers a dye emitter and returns its entity.
func (s *Scene) AddEmitter(e Emitter) ecs.Entity {
	return s.emitterMap.NewEntity(&e)
}

// AddImpulse registers a velocity impulse and returns its entity.
func (s *Scene) AddImpulse(imp Impulse) ecs.Entity {
	return s.impulseMap.NewEntity(&imp)
}

// RemoveEmitter deletes an emitter entity.
func (s *Scene) RemoveEmitter(e ecs.Entity) {
	s.emitterMap.Remove(e)
}

// RemoveImpulse deletes an impulse entity.
func (s *Scene) RemoveImpulse(e ecs.Entity) {
	s.impulseMap.Remove(e)
}

// Time returns the scene clock in simulation seconds.
func (s *Scene) Time() float32 { return s.time }

// Setup creates the tracers the emitters reference, stamps initial state,
// and registers the impulse hook on sim. Call once per Sim.
func (s *Scene) Setup(sim *solver.Sim, noise *config.NoiseConfig) {
	query := s.emitters.Query()
	for query.Next() {
		e := query.Get()
		if sim.Tracer(e.Tracer) == nil {
			sim.AddTracer(e.Tracer)
		}
	}

	s.Restamp(sim, noise)

	sim.OnForces(func(_ *field.Field[field.Vec2], dt float32) {
		s.applyImpulses(sim, dt)
	})
}

// Restamp rewrites the initial conditions onto an existing Sim: emitter
// blobs into their tracers and noise into the velocity field. Used by Setup
// and by viewer resets; resets the scene clock.
func (s *Scene) Restamp(sim *solver.Sim, noise *config.NoiseConfig) {
	s.time = 0

	query := s.emitters.Query()
	for query.Next() {
		e := query.Get()
		t := sim.Tracer(e.Tracer)
		if t == nil {
			continue
		}
		stampBlob(t.F, e.I, e.J, e.Radius, 1)
	}

	if noise != nil && noise.Amplitude != 0 {
		SeedVelocity(sim.Velocity(), noise.Seed, float32(noise.Scale), float32(noise.Amplitude))
	}
}

// Advance moves the scene clock and stamps the continuous emitters. Call
// once per tick, before sim.Step.
func (s *Scene) Advance(sim *solver.Sim, dt float32) {
	s.time += dt

	query := s.emitters.Query()
	for query.Next() {
		e := query.Get()
		if e.Rate == 0 {
			continue
		}
		t := sim.Tracer(e.Tracer)
		if t == nil {
			continue
		}
		stampBlob(t.F, e.I, e.J, e.Radius, e.Rate*dt)
	}
}

// applyImpulses runs inside the Step force hook; writes go through
// Sim.AddForceRadius and the boundary refresh happens after all hooks.
func (s *Scene) applyImpulses(sim *solver.Sim, dt float32) {
	query := s.impulses.Query()
	for query.Next() {
		imp := query.Get()
		if s.time < imp.Start {
			continue
		}
		if imp.Duration > 0 && s.time >= imp.Start+imp.Duration {
			continue
		}
		sim.AddForceRadius(imp.I, imp.J, imp.Force.Scale(dt), imp.Radius)
	}
}

// stampBlob adds amount to every interior cell within radius of (ci, cj),
// scaled by the parabolic weight 1 - d²/(radius²+1), then refreshes the
// field's ghosts.
func stampBlob(f *field.Field[field.Scalar], ci, cj, radius int, amount float32) {
	if radius < 0 {
		radius = 0
	}
	for i := ci - radius; i <= ci+radius; i++ {
		if i < 0 || i >= f.Ni {
			continue
		}
		for j := cj - radius; j <= cj+radius; j++ {
			if j < 0 || j >= f.Nj {
				continue
			}
			di := i - ci
			dj := j - cj
			d2 := di*di + dj*dj
			if d2 > radius*radius {
				continue
			}
			w := float32(1)
			if radius > 0 {
				w = 1 - float32(d2)/float32(radius*radius+1)
			}
			f.Set(i, j, f.At(i, j).Add(field.Scalar(amount*w)))
		}
	}
	f.UpdateBoundary()
}
