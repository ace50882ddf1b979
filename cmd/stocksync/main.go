// cmd/stocksync/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/heinrichb/stocksync/pkg/archive"
	"github.com/heinrichb/stocksync/pkg/catalog"
	"github.com/heinrichb/stocksync/pkg/config"
	"github.com/heinrichb/stocksync/pkg/feed"
	"github.com/heinrichb/stocksync/pkg/logger"
	"github.com/heinrichb/stocksync/pkg/reconcile"
	"github.com/heinrichb/stocksync/pkg/transfer"
	"github.com/heinrichb/stocksync/pkg/utils"
)

/*
Global variables for storing command-line arguments.

- configPath: The path to an optional JSON configuration file.
- verbose: Enables verbose output.
*/
var (
	configPath string
	verbose    bool
)

// download fetches the feed; tests replace it to avoid a real file server.
var download = transfer.Download

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&configPath, "c", "", "Path to config file (shorthand)")
	flag.BoolVar(&verbose, "verbose", false, "Enable verbose output")
	flag.BoolVar(&verbose, "v", false, "Enable verbose output (shorthand)")
}

/*
main is the entry point of the stocksync CLI.

It loads the configuration, downloads the stock feed, and pushes it into the
catalog. Every failure is reported on stdout; the process always exits 0 so a
scheduler sees one complete log per run.
*/
func main() {
	flag.Parse()
	config.Verbose = verbose

	utils.PrintColored("Starting stocksync!", "", utils.ColorInfo)

	cfg, err := config.Load(configPath)
	if err != nil {
		utils.PrintColored("Failed to load config: ", err.Error(), utils.ColorError)
		return
	}
	if err := cfg.Validate(); err != nil {
		utils.PrintColored("Invalid config: ", err.Error(), utils.ColorError)
		return
	}

	log, err := logger.New(cfg.Log.Format, verbose)
	if err != nil {
		utils.PrintColored("Failed to start logger: ", err.Error(), utils.ColorError)
		return
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := run(ctx, cfg, log)
	if err != nil {
		log.Error("Error in inventory update", zap.Error(err))
		utils.PrintColored("stocksync aborted: ", err.Error(), utils.ColorError)
		return
	}

	printSummary(summary)
	utils.PrintColored("stocksync completed successfully.", "", utils.ColorSuccess)
}

// reportPrefix starts every run report file name.
const reportPrefix = "run"

// runReport is what gets written to storage.savePath after a run.
type runReport struct {
	Feed feed.Stats         `json:"feed"`
	Run  *reconcile.Summary `json:"run"`
}

/*
run performs one sync: download, optional archive, parse, reconcile.

A failed or unconfigured download, or a failed archive, is logged and the run
carries on with whatever feed file is on disk. Only failures that leave
nothing to reconcile (no readable feed, no usable catalog client) are
returned. A panic anywhere in the run is returned as an error.
*/
func run(ctx context.Context, cfg *config.Config, log *zap.Logger) (summary *reconcile.Summary, err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("Unexpected panic during run", zap.Any("panic", p), zap.Stack("stack"))
			summary, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	var downloaded bool
	if cfg.Transfer.Configured() {
		downloaded, err = download(ctx, cfg.Transfer, cfg.Storage.FeedPath, log)
		if err != nil {
			log.Error("Error downloading feed, using local copy", zap.String("feedPath", cfg.Storage.FeedPath), zap.Error(err))
		}
	} else {
		log.Warn("No transfer host configured, using local feed", zap.String("feedPath", cfg.Storage.FeedPath))
	}

	if downloaded && cfg.Archive.Enabled {
		archiveFeed(ctx, cfg, log)
	}

	groups, stats, err := feed.NewParser(feed.WithLogger(log)).ParseFile(cfg.Storage.FeedPath)
	if err != nil {
		return nil, err
	}

	client, err := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Token, catalog.WithLogger(log))
	if err != nil {
		return nil, err
	}

	runner := reconcile.NewRunner(client,
		reconcile.WithLogger(log),
		reconcile.WithCreateOnLookupError(cfg.Sync.CreateOnLookupError),
		reconcile.WithCreateMissingVariants(cfg.Sync.CreateMissingVariants),
	)
	summary = runner.Run(ctx, groups)

	if cfg.Storage.SaveReport {
		path, err := utils.SaveReport(cfg.Storage.SavePath, reportPrefix, runReport{Feed: stats, Run: summary})
		if err != nil {
			log.Error("Error saving run report", zap.Error(err))
		} else {
			log.Info("Run report saved", zap.String("path", path))
		}
	}

	return summary, nil
}

func archiveFeed(ctx context.Context, cfg *config.Config, log *zap.Logger) {
	archiver, err := archive.NewS3Archiver(ctx, cfg.Archive, archive.WithLogger(log))
	if err != nil {
		log.Error("Error configuring feed archive", zap.Error(err))
		return
	}
	if _, err := archiver.Upload(ctx, cfg.Storage.FeedPath); err != nil {
		log.Error("Error archiving feed", zap.Error(err))
	}
}

func printSummary(s *reconcile.Summary) {
	utils.PrintColored("Created: ", fmt.Sprint(s.Count(reconcile.OutcomeCreated)), utils.ColorSuccess)
	utils.PrintColored("Updated: ", fmt.Sprint(s.Count(reconcile.OutcomeUpdated)), utils.ColorSuccess)
	utils.PrintColored("Skipped (no stock): ", fmt.Sprint(s.Count(reconcile.OutcomeSkipped)), utils.ColorWarn)

	failed := s.Failed()
	utils.PrintColored("Failed: ", fmt.Sprint(len(failed)), utils.ColorError)
	for _, item := range failed {
		utils.PrintColored("  "+item.Name+": ", item.Reason, utils.ColorError)
	}
}
