package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	preset     string
	fromRun    string

	bodies     int
	iterations int
	backend    string
	scheme     string
	seed       uint64
	soft       float32
	dt         float32
	gravity    float32
	padding    int
	workers    int
	chunk      int
	laneWidth  int
	tpb        int
	deviceMB   int64
	driftEvery int

	showGflops bool
	progress   bool
	live       bool
	noSave     bool

	tolerance   float64
	verifySteps int

	asJSON    bool
	showCount int
)

// main registers the gravsim commands and exits with status 1 on error.
func main() {
	log.SetFlags(0)
	log.SetPrefix("gravsim: ")

	rootCmd := &cobra.Command{
		Use:           "gravsim",
		Short:         "direct-summation n-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gravsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().BoolVar(&showGflops, "gf", true, "report Gflop/s")
	runCmd.Flags().BoolVar(&progress, "progress", false, "print progress while running")
	runCmd.Flags().BoolVar(&live, "live", false, "show a live dashboard")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not record the run")
	runCmd.Flags().StringVar(&fromRun, "from", "", "start from the final bodies of a recorded run")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "compare every backend against cpu+optim",
		Args:  cobra.NoArgs,
		RunE:  verifyBackends,
	}
	addSimFlags(verifyCmd)
	verifyCmd.Flags().Float64Var(&tolerance, "tolerance", 1e-3, "maximum relative error")
	verifyCmd.Flags().IntVar(&verifySteps, "steps", 5, "iterations for the trajectory check")

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "list backends",
		Args:  cobra.NoArgs,
		RunE:  listBackends,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scheme]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy drift of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&asJSON, "json", false, "print run and bodies as JSON")
	showCmd.Flags().IntVar(&showCount, "bodies", 5, "number of bodies to print")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "search worker and chunk settings for the highest throughput",
		Args:  cobra.NoArgs,
		RunE:  tuneBackend,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().IntSliceVar(&workerGrid, "worker-grid", []int{1, 2, 4, 8}, "worker counts to try")
	tuneCmd.Flags().IntSliceVar(&chunkGrid, "chunk-grid", []int{4, 16, 64}, "chunk sizes to try")

	rootCmd.AddCommand(runCmd, verifyCmd, tuneCmd, backendsCmd, presetsCmd, listCmd, plotCmd, showCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Print(err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVarP(&bodies, "bodies", "n", 1000, "number of bodies")
	f.IntVarP(&iterations, "iterations", "i", 100, "number of iterations")
	f.StringVar(&backend, "im", "cpu+simd+par", "backend")
	f.StringVar(&scheme, "scheme", "galaxy", "initial conditions")
	f.Uint64Var(&seed, "seed", 0, "random seed")
	f.Float32Var(&soft, "soft", 0.035, "softening length")
	f.Float32Var(&dt, "dt", 3600, "time step")
	f.Float32Var(&gravity, "g", 6.67430e-11, "gravitational constant")
	f.IntVar(&padding, "padding", -1, "padding bodies (negative pads to the lane width)")
	f.IntVar(&workers, "workers", 0, "worker goroutines (0 uses GOMAXPROCS)")
	f.IntVar(&chunk, "chunk", 0, "bodies per scheduling chunk (0 picks one)")
	f.IntVar(&laneWidth, "lane", 0, "lane width (0 detects it)")
	f.IntVar(&tpb, "tpb", 256, "device threads per block")
	f.Int64Var(&deviceMB, "device-mem", 1024, "device memory in MiB")
	f.IntVar(&driftEvery, "drift-every", 10, "iterations between energy samples (0 disables)")
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "preset as scheme/name")
}
