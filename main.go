package main

import (
	"flag"
	"log/slog"
	"os"

	"inkflow/config"
	"inkflow/scene"
	"inkflow/solver"
	"inkflow/telemetry"
	"inkflow/viewer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs, frame dumps and config snapshot")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (headless only; must be > 0)")
	framesEvery := flag.Int("frames-every", 0, "Ticks between frame dumps (0 = no frames)")
	seed := flag.Int64("seed", 0, "Noise seed override (0 = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *seed != 0 {
		cfg.Scene.Noise.Seed = *seed
	}

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	solver.SetWorkers(cfg.Solver.Workers)

	method, err := solver.ParseMethod(cfg.Solver.Method)
	if err != nil {
		slog.Error("invalid solver method", "error", err)
		os.Exit(1)
	}

	sim := solver.NewSim(cfg.Grid.Ni, cfg.Grid.Nj, method, cfg.Solver.Iters, float32(cfg.Solver.Omega))
	sc := scene.New(&cfg.Scene)
	sc.Setup(sim, &cfg.Scene.Noise)

	om, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output manager", "error", err)
		os.Exit(1)
	}
	defer om.Close()
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	if *headless {
		if *maxTicks <= 0 {
			slog.Error("headless mode requires --max-ticks > 0")
			os.Exit(1)
		}
		slog.Info("starting headless run",
			"grid", [2]int{cfg.Grid.Ni, cfg.Grid.Nj},
			"dt", cfg.Physics.DT,
			"method", method.String(),
			"iters", cfg.Solver.Iters,
			"omega", sim.Omega(),
			"max_ticks", *maxTicks,
		)
		runHeadless(cfg, sim, sc, om, *maxTicks, *framesEvery)
		return
	}

	viewer.Run(cfg, sim, sc)
}

func runHeadless(cfg *config.Config, sim *solver.Sim, sc *scene.Scene, om *telemetry.OutputManager, maxTicks, framesEvery int) {
	dt := cfg.Derived.DT32
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	sim.OnPhase(perf.StartPhase)

	sampleEvery := cfg.Telemetry.SampleEvery
	if sampleEvery < 1 {
		sampleEvery = 1
	}

	divBuf := make([]float64, 0, cfg.Grid.Ni*cfg.Grid.Nj)

	for tick := 0; tick < maxTicks; tick++ {
		perf.StartTick()
		sc.Advance(sim, dt)
		sim.Step(dt)

		if tick%sampleEvery == 0 {
			perf.StartPhase(telemetry.PhaseOutput)
			divBuf = sim.DivergenceInto(divBuf[:0])
			maxDiv, l2 := telemetry.ResidualStats(divBuf)
			perf.EndTick()

			sample := telemetry.ResidualSample{
				Tick:      tick,
				Time:      float64(sc.Time()),
				MaxDivPre: float64(sim.LastPreProjectionDiv()),
				MaxDiv:    maxDiv,
				L2Div:     l2,
				StepMs:    float64(perf.Total().Microseconds()) / 1000,
			}
			if err := om.WriteResidual(sample); err != nil {
				slog.Error("telemetry write failed", "error", err)
			}
			if err := om.WritePerf(perf.Record(tick)); err != nil {
				slog.Error("perf write failed", "error", err)
			}
			slog.Info("tick", "n", tick, "max_div", maxDiv, "l2_div", l2)
		} else {
			perf.EndTick()
		}

		if framesEvery > 0 && tick%framesEvery == 0 {
			writeFrames(sim, om, tick)
		}
	}

	slog.Info("run complete", "ticks", maxTicks, "max_div", sim.MaxDivergence())
}

func writeFrames(sim *solver.Sim, om *telemetry.OutputManager, tick int) {
	if err := om.WriteFrame("velocity", tick, sim.Velocity().SerializeInterior(2)); err != nil {
		slog.Error("frame write failed", "error", err)
		return
	}
	if err := om.WriteFrame("pressure", tick, sim.Pressure().SerializeInterior(2)); err != nil {
		slog.Error("frame write failed", "error", err)
		return
	}
	for _, t := range sim.Tracers() {
		if err := om.WriteFrame(t.Name, tick, t.F.SerializeInterior(2)); err != nil {
			slog.Error("frame write failed", "error", err)
			return
		}
	}
}
