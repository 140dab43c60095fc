// Package main provides the byweb command that prepares the ROMIP byweb2007
// collection as CSV tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"byweb/internal/config"
	"byweb/internal/logger"
	"byweb/internal/pipeline"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "Path to YAML configuration")
	reset := flag.Bool("reset", false, "Delete all shard snapshots before running")
	logLevel := flag.String("log-level", "", "Override logging.level (debug, info, warn, error)")
	help := flag.Bool("help", false, "Show help message")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		color.Red("❌ %v", err)
		os.Exit(1)
	}

	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
		if err := cfg.Validate(); err != nil {
			color.Red("❌ %v", err)
			os.Exit(1)
		}
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	log.Debug("Loaded configuration", "path", *configPath, "config", cfg.String())

	var opts []pipeline.Option
	if cfg.Logging.ShowProgress {
		opts = append(opts, pipeline.WithProgress(os.Stderr))
	}

	p, err := pipeline.New(cfg, log, opts...)
	if err != nil {
		log.Error("❌ Pipeline setup failed", "error", err)
		os.Exit(1)
	}

	if *reset {
		if err := p.Reset(); err != nil {
			log.Error("❌ Reset failed", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := p.Run(ctx)
	if err != nil {
		log.Error("❌ Pipeline failed", "error", err)
		stop()
		os.Exit(1)
	}

	printSummary(summary)
}

func printSummary(s *pipeline.Summary) {
	fmt.Println("\n------------------------------------------------")
	fmt.Printf("📊 Summary Report\n")
	fmt.Println("------------------------------------------------")
	fmt.Print(s.Report)
	fmt.Println()

	color.Green("Documents: %d", s.Documents)
	fmt.Printf("Tasks: %d\n", s.Tasks)
	fmt.Printf("Judged documents: %d\n", s.Judged)

	for _, out := range s.Outputs {
		fmt.Printf("  → %s (%d rows)\n", out.Path, out.Rows)
	}

	if skipped := s.Skipped(); len(skipped) > 0 {
		color.Yellow("⚠️  Skipped shards: %d", len(skipped))

		for _, r := range skipped {
			color.Yellow("  - shard %d: %v", r.Index, r.Skip)
		}
	}

	for _, err := range s.TableErrors {
		color.Yellow("⚠️  %v", err)
	}

	if s.Validation != nil && !s.Validation.IsValid {
		for _, e := range s.Validation.Errors {
			color.Red("❌ %v", e)
		}
	}

	fmt.Printf("Total Duration: %v\n", s.Duration)
	fmt.Println("------------------------------------------------")
}

func printUsage() {
	fmt.Println("byweb - prepare the ROMIP byweb2007 collection")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  byweb [-config configs/byweb.yaml] [-reset] [-log-level debug]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Shards with a valid snapshot in checkpoint.dir are not processed again;")
	fmt.Println("use -reset to start over.")
}
