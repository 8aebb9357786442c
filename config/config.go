// Package config provides configuration loading and access for the solver
// and its drivers.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Grid      GridConfig      `yaml:"grid"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Solver    SolverConfig    `yaml:"solver"`
	Scene     SceneConfig     `yaml:"scene"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Screen    ScreenConfig    `yaml:"screen"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GridConfig holds the interior grid dimensions (rows × columns).
type GridConfig struct {
	Ni int `yaml:"ni"`
	Nj int `yaml:"nj"`
}

// PhysicsConfig holds time-stepping parameters.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// SolverConfig holds pressure-projection parameters.
type SolverConfig struct {
	Iters   int     `yaml:"iters"`   // outer relaxation sweeps per projection
	Omega   float64 `yaml:"omega"`   // SOR factor in (0,2); 0 = optimal for grid size
	Method  string  `yaml:"method"`  // sor | gauss-seidel | jacobi
	Workers int     `yaml:"workers"` // stencil goroutines; 0 = GOMAXPROCS
}

// SceneConfig holds the emitters, impulses and initial-condition noise that
// drive a run.
type SceneConfig struct {
	Emitters []EmitterConfig `yaml:"emitters"`
	Impulses []ImpulseConfig `yaml:"impulses"`
	Noise    NoiseConfig     `yaml:"noise"`
}

// EmitterConfig defines a dye source stamped into a tracer every tick.
type EmitterConfig struct {
	Tracer string  `yaml:"tracer"`
	I      int     `yaml:"i"`
	J      int     `yaml:"j"`
	Radius int     `yaml:"radius"`
	Rate   float64 `yaml:"rate"` // dye per second at the emitter center
}

// ImpulseConfig defines a velocity kick active over a time window.
type ImpulseConfig struct {
	I        int     `yaml:"i"`
	J        int     `yaml:"j"`
	Radius   int     `yaml:"radius"`
	FX       float64 `yaml:"fx"` // cells per second², along the row axis
	FY       float64 `yaml:"fy"` // along the column axis
	Start    float64 `yaml:"start"`
	Duration float64 `yaml:"duration"` // 0 = active forever
}

// NoiseConfig holds initial-condition noise parameters. Amplitude 0 leaves
// the velocity field at rest.
type NoiseConfig struct {
	Seed      int64   `yaml:"seed"`
	Scale     float64 `yaml:"scale"`     // noise frequency in cells
	Amplitude float64 `yaml:"amplitude"` // bound on each velocity component, in cells per time unit
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int `yaml:"perf_window"`  // ticks averaged by the perf collector
	SampleEvery int `yaml:"sample_every"` // ticks between residual samples
}

// ScreenConfig holds viewer display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32 float32 // Physics.DT as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Grid.Ni < 2 || c.Grid.Nj < 2 {
		return fmt.Errorf("grid must be at least 2x2, got %dx%d", c.Grid.Ni, c.Grid.Nj)
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	if c.Solver.Iters < 1 {
		return fmt.Errorf("solver.iters must be positive, got %d", c.Solver.Iters)
	}
	if c.Solver.Omega < 0 || c.Solver.Omega >= 2 {
		return fmt.Errorf("solver.omega must be in [0,2), got %v", c.Solver.Omega)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
