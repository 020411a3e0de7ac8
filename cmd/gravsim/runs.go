package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/device"
	"github.com/san-kum/gravsim/internal/storage"
)

func listBackends(cmd *cobra.Command, args []string) error {
	lanes := compute.Lanes()

	heading("backends")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPOLICY\tFLOP/IT (n=1000)")
	for _, name := range compute.Names() {
		b, err := compute.New(name, compute.Options{})
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, b.Policy(), humanize.SIWithDigits(b.FlopsPerIteration(1000), 1, ""))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	field("lane width", "%d", lanes.Width)
	field("vector unit", "%s accelerated=%v %v", lanes.Arch, lanes.Accelerated, lanes.Features)
	dev := device.DefaultConfig()
	field("device", "%d threads/block, %s, %d workers",
		dev.ThreadsPerBlock, humanize.IBytes(uint64(dev.MemoryBytes)), dev.Workers)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	schemes := make([]string, 0, len(config.Presets))
	if len(args) == 1 {
		schemes = append(schemes, args[0])
	} else {
		for s := range config.Presets {
			schemes = append(schemes, s)
		}
		sort.Strings(schemes)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tBODIES\tITERATIONS\tBACKEND\tDT")
	found := false
	for _, s := range schemes {
		for _, name := range config.ListPresets(s) {
			p := config.GetPreset(s, name)
			fmt.Fprintf(w, "%s/%s\t%s\t%d\t%s\t%g\n", s, name, humanize.Comma(int64(p.Bodies)), p.Iterations, p.Backend, p.Dt)
			found = true
		}
	}
	if !found {
		fmt.Printf("no presets for scheme: %s\n", args[0])
		return nil
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tBACKEND\tSCHEME\tBODIES\tITER\tGFLOP/S\tDRIFT\tWHEN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.2f\t%.2e\t%s\n",
			run.ID,
			run.Backend,
			run.Scheme,
			humanize.Comma(int64(run.Bodies)),
			run.Iterations,
			run.Gflops,
			run.Metrics["energy_drift"],
			humanize.Time(run.Timestamp),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	if len(meta.Drift) == 0 {
		return fmt.Errorf("run %s has no energy samples", runID)
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("backend: %s, %s bodies\n", meta.Backend, humanize.Comma(int64(meta.Bodies)))
	fmt.Printf("samples: %d\n\n", len(meta.Drift))

	caption := fmt.Sprintf("relative energy drift, iterations %d..%d",
		meta.DriftIterations[0], meta.DriftIterations[len(meta.DriftIterations)-1])
	graph := asciigraph.Plot(meta.Drift,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(caption),
	)
	fmt.Println(graph)
	return nil
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	bodies, err := st.LoadBodies(runID)
	if err != nil {
		return err
	}

	if asJSON {
		return storage.ExportJSON(os.Stdout, meta, bodies)
	}

	heading("run " + meta.ID)
	field("recorded", "%s", humanize.Time(meta.Timestamp))
	field("backend", "%s", meta.Backend)
	field("scheme", "%s (seed %d)", meta.Scheme, meta.Seed)
	field("bodies", "%s (+%d padding)", humanize.Comma(int64(meta.Bodies)), meta.Padding)
	field("iterations", "%d", meta.Iterations)
	field("params", "G=%g soft=%g dt=%g", meta.G, meta.Soft, meta.Dt)
	field("elapsed", "%.3fs", meta.Elapsed)
	field("throughput", "%.3f Gflop/s (%.2f fps)", meta.Gflops, meta.FPS)

	names := make([]string, 0, len(meta.Metrics))
	for name := range meta.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		field(name, "%.6g", meta.Metrics[name])
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tMASS\tQX\tQY\tQZ\tVX\tVY\tVZ")
	for i := 0; i < min(showCount, bodies.N()); i++ {
		b := bodies.Get(i)
		fmt.Fprintf(w, "%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n", i, b.M, b.QX, b.QY, b.QZ, b.VX, b.VY, b.VZ)
	}
	return w.Flush()
}
