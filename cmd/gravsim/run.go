package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/body"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
	"github.com/san-kum/gravsim/internal/storage"
	"github.com/san-kum/gravsim/internal/tui"
)

// resolveConfig layers the preset, the config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		p := config.Lookup(preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	f := cmd.Flags()
	if f.Changed("bodies") {
		cfg.Bodies = bodies
	}
	if f.Changed("iterations") {
		cfg.Iterations = iterations
	}
	if f.Changed("im") {
		cfg.Backend = backend
	}
	if f.Changed("scheme") {
		cfg.Scheme = scheme
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("soft") {
		cfg.Soft = soft
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("g") {
		cfg.G = gravity
	}
	if f.Changed("padding") {
		cfg.Padding = padding
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("chunk") {
		cfg.Chunk = chunk
	}
	if f.Changed("lane") {
		cfg.LaneWidth = laneWidth
	}
	if f.Changed("tpb") {
		cfg.Device.ThreadsPerBlock = tpb
	}
	if f.Changed("device-mem") {
		cfg.Device.MemoryMB = deviceMB
	}
	if f.Changed("drift-every") {
		cfg.DriftEvery = driftEvery
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	simCfg := cfg.SimConfig()
	var s *sim.Simulation
	if fromRun != "" {
		start, err := st.LoadBodies(fromRun)
		if err != nil {
			return fmt.Errorf("loading run %s: %w", fromRun, err)
		}
		s, err = sim.NewWithBodies(simCfg, start)
		if err != nil {
			return err
		}
	} else {
		s, err = sim.New(simCfg)
		if err != nil {
			return err
		}
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.Printf("releasing backend: %v", err)
		}
	}()

	b := s.Backend()
	heading("gravsim run")
	field("backend", "%s (%s)", b.Name(), b.Policy())
	field("bodies", "%s (+%d padding)", humanize.Comma(int64(s.N())), s.Bodies().Padding())
	field("iterations", "%s", humanize.Comma(int64(cfg.Iterations)))
	field("dt", "%g", cfg.Dt)
	field("softening", "%g", cfg.Soft)
	fmt.Println()

	if live {
		return runLive(s, cfg, st)
	}

	observers := []sim.Observer{metrics.NewMomentumDrift(), metrics.NewStability()}
	var drift *metrics.EnergyDrift
	if cfg.DriftEvery > 0 {
		drift = metrics.NewEnergyDrift(cfg.DriftEvery)
		observers = append(observers, drift)
	}
	if progress {
		observers = append(observers, progressObserver(cfg.Iterations))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, runErr := s.Run(ctx, cfg.Iterations, observers...)
	if progress {
		fmt.Println()
	}
	if result == nil {
		return runErr
	}
	if runErr != nil {
		log.Printf("run stopped after %d iterations: %v", result.Iterations, runErr)
	}

	field("elapsed", "%v", result.Elapsed)
	field("fps", "%.3f", result.FPS)
	if showGflops {
		field("throughput", "%s", humanize.SIWithDigits(result.Gflops*1e9, 2, "flop/s"))
	}
	if drift != nil {
		field("energy drift", "%.3e", drift.Value())
	}
	field("momentum", "%.3e", result.Metrics["momentum_drift"])
	field("stability", "%.2f", result.Metrics["stability"])

	if noSave {
		return runErr
	}

	if err := saveRun(st, s, result, drift); err != nil {
		return err
	}
	return runErr
}

func runLive(s *sim.Simulation, cfg *config.Config, st *storage.Store) error {
	m, runErr := tui.Run(tui.NewModel(s, cfg.Iterations, 1, cfg.DriftEvery))
	result := m.Result()

	field("iterations", "%s", humanize.Comma(int64(result.Iterations)))
	field("elapsed", "%v", result.Elapsed)
	field("throughput", "%s", humanize.SIWithDigits(result.Gflops*1e9, 2, "flop/s"))
	field("energy drift", "%.3e", m.Drift().Value())

	if noSave || result.Iterations == 0 {
		return runErr
	}
	if err := saveRun(st, s, result, m.Drift()); err != nil {
		return err
	}
	return runErr
}

func saveRun(st *storage.Store, s *sim.Simulation, result *sim.Result, drift *metrics.EnergyDrift) error {
	meta := storage.NewMetadata(s.Config(), result)
	if drift != nil {
		meta.DriftIterations = drift.Iterations()
		meta.Drift = drift.Series()
	}
	runID, err := st.Save(meta, result.Final)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func progressObserver(total int) sim.Observer {
	step := max(total/20, 1)
	return sim.ObserverFunc(func(i int, _ *sim.Simulation) {
		if i%step == 0 || i == total {
			fmt.Printf("\r  %s", dimStyle.Render(fmt.Sprintf("iteration %d/%d", i, total)))
		}
	})
}

func verifyBackends(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	simCfg := cfg.SimConfig()

	ref, err := sim.New(withBackend(simCfg, compute.NameOptim))
	if err != nil {
		return err
	}
	start := ref.Bodies().Clone()
	defer ref.Close()

	heading("gravsim verify")
	field("bodies", "%s", humanize.Comma(int64(start.N())))
	field("tolerance", "%g", tolerance)
	field("lane width", "%d", compute.DetectLaneWidth())
	fmt.Println()

	refAcc, err := compute.Snapshot(compute.NameOptim, simCfg.Options, start, simCfg.Params)
	if err != nil {
		return err
	}

	names := compute.Names()
	results, err := sim.Backends(start, simCfg, names...).Run(context.Background(), verifySteps)
	if err != nil {
		return err
	}
	var refFinal *body.Store
	for _, r := range results {
		if r.Backend == compute.NameOptim {
			refFinal = r.Final
		}
	}

	failed := 0
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "BACKEND\tPOLICY\tACCEL ERR\tPOS ERR (%d it)\tSTATUS\n", verifySteps)
	for i, name := range names {
		b, _ := compute.New(name, simCfg.Options)
		acc, err := compute.Snapshot(name, simCfg.Options, start, simCfg.Params)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}

		accErr := compute.MaxRelativeError(refAcc, acc, start.N())
		posErr := positionError(refFinal, results[i].Final)
		ok := accErr <= tolerance && posErr <= tolerance
		if !ok {
			failed++
		}
		fmt.Fprintf(w, "%s\t%s\t%.3e\t%.3e\t%s\n", name, b.Policy(), accErr, posErr, status(ok))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d backend(s) exceeded tolerance %g", failed, tolerance)
	}
	return nil
}

func withBackend(cfg sim.Config, name string) sim.Config {
	cfg.Backend = name
	return cfg
}

// positionError is the largest position deviation relative to the largest
// reference coordinate.
func positionError(ref, got *body.Store) float64 {
	var scale, worst float64
	for i := 0; i < ref.N(); i++ {
		r, g := ref.Get(i), got.Get(i)
		for _, c := range [][2]float32{{r.QX, g.QX}, {r.QY, g.QY}, {r.QZ, g.QZ}} {
			scale = math.Max(scale, math.Abs(float64(c[0])))
			worst = math.Max(worst, math.Abs(float64(c[0]-c[1])))
		}
	}
	if scale == 0 {
		return worst
	}
	return worst / scale
}
