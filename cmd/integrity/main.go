// Command integrity runs anomaly detection and trust scoring once and prints
// the report.
//
//	integrity --all
//	integrity --anomaly-detection --export report.xlsx
//	integrity --trust-scores --json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"trustledger/internal/app"
	"trustledger/internal/integrity"
	"trustledger/internal/integrity/export"
	"trustledger/internal/platform/config"
	"trustledger/internal/platform/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("integrity", flag.ContinueOnError)
	fs.SetOutput(stderr)
	detect := fs.Bool("anomaly-detection", false, "Run anomaly detection")
	score := fs.Bool("trust-scores", false, "Calculate trust scores")
	all := fs.Bool("all", false, "Run all services")
	exportPath := fs.String("export", "", "Write the report to an xlsx workbook at this path")
	asJSON := fs.Bool("json", false, "Print the report as JSON")
	store := fs.String("store", "", "Override the configured store driver (memory or postgres)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	opts := integrity.Options{Detect: *all || *detect, Score: *all || *score}
	if !opts.Detect && !opts.Score {
		fmt.Fprintln(stderr, "nothing to do: pass --anomaly-detection, --trust-scores or --all")
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *store != "" {
		cfg.Store.Driver = *store
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}
	log := logger.NewWithWriter(stderr, cfg.Log.Level, "text")

	a, err := app.New(ctx, cfg, log, app.WithoutMetrics())
	if err != nil {
		log.Error("startup failed", "error", err)
		return 1
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("close resources", "error", err)
		}
	}()

	if opts.Detect && !*asJSON {
		fmt.Fprintln(stdout, "Running anomaly detection...")
	}
	report, runErr := a.Orchestrator.RunExclusive(ctx, opts)
	if errors.Is(runErr, integrity.ErrRunInProgress) {
		fmt.Fprintln(stderr, "another integrity run is in progress")
		return 1
	}
	if report == nil {
		log.Error("integrity run failed", "error", runErr)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Error("encode report", "error", err)
			return 1
		}
	} else {
		printReport(stdout, report, opts)
	}

	if *exportPath != "" {
		if err := export.SaveWorkbook(*exportPath, report); err != nil {
			log.Error("export failed", "error", err)
			return 1
		}
		fmt.Fprintf(stderr, "report written to %s\n", *exportPath)
	}

	if runErr != nil {
		log.Error("integrity run completed with errors", "error", runErr)
		return 1
	}
	return 0
}

func printReport(w io.Writer, report *integrity.Report, opts integrity.Options) {
	if d := report.Detections; opts.Detect && d != nil {
		fmt.Fprintf(w, "Anomaly detection completed. Found %d anomalies:\n", d.TotalDetected)
		fmt.Fprintf(w, "  - Budget overruns: %d\n", len(d.BudgetOverruns))
		fmt.Fprintf(w, "  - Unusual spending: %d\n", len(d.UnusualSpending))
		fmt.Fprintf(w, "  - Delayed projects: %d\n", len(d.DelayedProjects))
		for _, c := range d.Summaries {
			if c.Failed() {
				fmt.Fprintf(w, "  ! %s failed: %s\n", c.Category, c.Error)
			}
		}
		if n := len(d.Diagnostics); n > 0 {
			fmt.Fprintf(w, "  Skipped %d records with inconsistent data\n", n)
		}
	}
	if opts.Score {
		fmt.Fprintln(w, "Calculating trust scores...")
		for _, s := range report.TrustScores {
			fmt.Fprintf(w, "  - %s: %d/100\n", s.Department, s.OverallScore)
		}
		fmt.Fprintln(w, "Trust score calculation completed.")
	}
}
