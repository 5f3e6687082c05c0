// Command pipeline runs one campaign brief through generation, composition,
// and the compliance gate, then writes a run report.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/brandgate/creative-automation/internal/bootstrap"
	"github.com/brandgate/creative-automation/internal/config"
	"github.com/brandgate/creative-automation/pkg/errors"
)

func main() {
	os.Exit(run())
}

func run() int {
	briefPath := flag.String("brief", "", "path to the campaign brief JSON file")
	quiet := flag.Bool("quiet", false, "suppress the summary table")
	flag.Parse()

	if *briefPath == "" {
		fmt.Fprintln(os.Stderr, "usage: pipeline -brief <path/to/brief.json>")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("configuration error: %v", err)
		return 1
	}

	deps, err := bootstrap.Initialize(cfg)
	if err != nil {
		log.Printf("initialization error: %v", err)
		return 1
	}
	defer deps.Close()
	logger := deps.Logger
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil && !errors.Is(syncErr, syscall.EINVAL) {
			log.Printf("failed to sync logger: %v", syncErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := deps.Pipeline.Run(ctx, *briefPath)
	if rep != nil && !*quiet {
		rep.PrintSummary(os.Stdout)
	}

	switch {
	case errors.Is(err, errors.ErrCampaignBlocked):
		logger.Warn("campaign blocked by legal screening", zap.String("brief", *briefPath))
		return 2
	case err != nil:
		logger.Error("campaign run failed", zap.Error(err))
		return 1
	}
	return 0
}
