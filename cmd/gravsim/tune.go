package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/san-kum/gravsim/internal/optim"
)

var (
	workerGrid []int
	chunkGrid  []int
)

func tuneBackend(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	simCfg := cfg.SimConfig()

	heading("gravsim tune")
	field("backend", "%s", simCfg.Backend)
	field("bodies", "%s", humanize.Comma(int64(simCfg.Bodies)))
	field("workers", "%v", workerGrid)
	field("chunks", "%v", chunkGrid)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, gflops, err := optim.Tune(ctx, simCfg, cfg.Iterations, workerGrid, chunkGrid)
	if err != nil {
		return err
	}

	field("best workers", "%d", best.Workers)
	field("best chunk", "%d", best.Chunk)
	field("throughput", "%s", humanize.SIWithDigits(gflops*1e9, 2, "flop/s"))
	fmt.Printf("\n%s\n", dimStyle.Render(fmt.Sprintf("gravsim run --im %s --workers %d --chunk %d",
		simCfg.Backend, best.Workers, best.Chunk)))
	return nil
}
