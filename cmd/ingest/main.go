// Command ingest parses weekly ticket sales reports and loads the
// normalized performance snapshots into the warehouse.
//
// Usage:
//
//	ingest [flags] <file-or-directory>
//
// The path may be a single report or a directory tree of reports. By
// default the run appends, skipping snapshots already in the warehouse;
// --clear replaces the affected fiscal years instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"tixcli/internal/config"
	"tixcli/internal/infrastructure"
	"tixcli/internal/ingest"
	"tixcli/internal/warehouse"
	"tixcli/pkg/contracts"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "tixcli.yaml", "path to YAML config file")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing to the warehouse")
	clearMode := flag.Bool("clear", false, "delete the affected fiscal years before writing")
	year := flag.String("year", "", "restrict the run to one fiscal year, e.g. FY25")
	source := flag.String("source", "", "override the provenance source tag")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.VersionString())
		return 0
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ingest [flags] <file-or-directory>")
		flag.PrintDefaults()
		return 2
	}
	if *dryRun && *clearMode {
		fmt.Fprintln(os.Stderr, "--dry-run and --clear are mutually exclusive")
		return 2
	}

	// Optional; local runs keep credentials in a .env file.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	if *source != "" {
		cfg.Pipeline.Source = *source
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 2
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := openWarehouse(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to open warehouse", slog.String("error", err.Error()))
		return 1
	}
	defer w.Close()

	driver := ingest.NewDriver(logger, cfg, w)
	report, err := driver.Run(ctx, ingest.RunOptions{
		Path:   flag.Arg(0),
		DryRun: *dryRun,
		Clear:  *clearMode,
		Year:   *year,
	})
	if err != nil {
		logger.Error("ingestion run failed", slog.String("error", err.Error()))
		return 1
	}

	// Per-row warehouse failures degrade the run but do not fail it;
	// they are already detailed in the log and the report.
	if report.Ingest != nil && len(report.Ingest.Failures) > 0 {
		logger.Warn("run completed with row failures",
			slog.Int("failures", len(report.Ingest.Failures)))
	}
	return 0
}

func openWarehouse(ctx context.Context, logger *slog.Logger, cfg *config.Config) (warehouse.Warehouse, error) {
	switch cfg.Warehouse.Backend {
	case "bigquery":
		return warehouse.NewBigQueryWarehouse(ctx, logger, warehouse.BigQueryOptions{
			ProjectID:       cfg.Warehouse.ProjectID,
			Dataset:         cfg.Warehouse.Dataset,
			Table:           cfg.Warehouse.Table,
			CredentialsFile: cfg.Warehouse.CredentialsFile,
		})
	case "postgres":
		return warehouse.NewPostgresWarehouse(ctx, logger, cfg.Warehouse.DatabaseURL, cfg.Warehouse.Table)
	case "memory":
		return warehouse.NewMemoryWarehouse(), nil
	default:
		return nil, fmt.Errorf("unknown warehouse backend %q", cfg.Warehouse.Backend)
	}
}
