package ingest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tixcli/internal/config"
	"tixcli/internal/correct"
	"tixcli/internal/document"
	tixerrors "tixcli/internal/errors"
	"tixcli/internal/extract"
	"tixcli/internal/infrastructure"
	"tixcli/internal/layout"
	"tixcli/internal/normalize"
	"tixcli/internal/warehouse"
	"tixcli/pkg/contracts/domain"
)

// Driver runs the full pipeline: discover documents, parse them
// concurrently, normalize and correct the merged batch, then ingest it
// or write a dry-run report.
type Driver struct {
	logger     *slog.Logger
	cfg        *config.Config
	discovery  *document.Discovery
	detector   *layout.Detector
	sheets     *extract.SheetExtractor
	pdfs       *extract.PDFExtractor
	normalizer *normalize.Normalizer
	corrector  *correct.SpikeCorrector
	ingestor   *Ingestor
}

// RunOptions select what one invocation processes and how.
type RunOptions struct {
	// Path is the report file or directory to ingest.
	Path string
	// DryRun runs the full pipeline but writes a report instead of
	// touching the warehouse.
	DryRun bool
	// Clear deletes the affected fiscal years before writing.
	Clear bool
	// Year optionally restricts the run to one fiscal year (FYxx) and
	// supplies the year context for free-text performance dates.
	Year string
}

// NewDriver wires the pipeline stages over the given warehouse.
func NewDriver(logger *slog.Logger, cfg *config.Config, w warehouse.Warehouse) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		logger:     logger,
		cfg:        cfg,
		discovery:  document.NewDiscovery(logger),
		detector:   layout.NewDetector(logger),
		sheets:     extract.NewSheetExtractor(logger),
		pdfs:       extract.NewPDFExtractor(logger),
		normalizer: normalize.NewNormalizer(logger, cfg.Pipeline.Source),
		corrector: correct.NewSpikeCorrector(logger,
			cfg.Pipeline.SpikeJumpFactor, cfg.Pipeline.SpikeReversionFactor),
		ingestor: NewIngestor(logger, w, Options{
			BatchSize:    cfg.Warehouse.BatchSize,
			MaxRetries:   cfg.Warehouse.MaxRetries,
			RetryBase:    cfg.Warehouse.RetryBase,
			WritesPerSec: cfg.Warehouse.WritesPerSec,
		}),
	}
}

// Run executes one pipeline invocation and returns its report. Document
// and record level failures degrade the batch and are tallied in the
// report; an error is returned only for configuration problems,
// whole-batch warehouse failures, or when every discovered document was
// unparsable.
func (d *Driver) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	runID := uuid.NewString()
	ctx = infrastructure.WithRunID(ctx, runID)

	var yearFilter *normalize.FiscalYear
	if opts.Year != "" {
		fy, err := normalize.ParseFiscalYear(opts.Year)
		if err != nil {
			return nil, tixerrors.NewConfiguration("invalid --year", err)
		}
		yearFilter = &fy
	}

	report := NewRunReport(runID, modeLabel(opts))
	d.logger.InfoContext(ctx, "starting ingestion run",
		slog.String("path", opts.Path),
		slog.String("mode", report.Mode),
		slog.String("year", opts.Year))

	docs, discErrs := d.discovery.Discover(opts.Path)
	for _, err := range discErrs {
		if tixerrors.IsCode(err, tixerrors.CodeConfiguration) {
			return nil, err
		}
		d.logger.WarnContext(ctx, "skipping undiscoverable document",
			slog.String("error", err.Error()))
	}
	report.Documents = len(docs)

	snapshots := d.parseAll(ctx, docs, yearFilter, report)
	if len(docs) > 0 && len(report.DocumentFailures) == len(docs) {
		return report, tixerrors.NewDocumentUnreadable(strings.Join(report.DocumentFailures, ", "), nil)
	}

	if yearFilter != nil {
		snapshots = filterByFiscalYear(snapshots, yearFilter.Label)
	}
	report.Corrected = d.corrector.Correct(snapshots)
	report.AddSnapshots(snapshots)

	if opts.DryRun {
		path, err := report.Write(d.cfg.Pipeline.ReportDir)
		if err != nil {
			return report, tixerrors.NewConfiguration("dry-run report", err)
		}
		d.logger.InfoContext(ctx, "dry run complete",
			slog.Int("snapshots", report.Snapshots),
			slog.String("report", path))
		return report, nil
	}

	mode := ModeAppend
	if opts.Clear {
		mode = ModeClear
	}
	summary, err := d.ingestor.Ingest(ctx, snapshots, mode)
	report.Ingest = summary
	if err != nil {
		return report, err
	}

	d.logger.InfoContext(ctx, "ingestion run complete",
		slog.Int("documents", report.Documents),
		slog.Int("snapshots", report.Snapshots),
		slog.Int("inserted", summary.Inserted),
		slog.Int("skipped_existing", summary.SkippedExisting),
		slog.Int("row_failures", len(summary.Failures)),
		slog.Int("corrected", report.Corrected))
	return report, nil
}

// parseAll fans document parsing out over the configured worker count
// and merges the results. A failed document never sinks the batch; it
// is logged and tallied.
func (d *Driver) parseAll(ctx context.Context, docs []document.Document, yearFilter *normalize.FiscalYear, report *RunReport) []*domain.PerformanceSnapshot {
	var mu sync.Mutex
	var merged []*domain.PerformanceSnapshot

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Pipeline.Workers)
	for _, doc := range docs {
		g.Go(func() error {
			fy := normalize.FiscalYearForDate(doc.SnapshotDate)
			if yearFilter != nil {
				fy = *yearFilter
			}
			snaps, dropped, err := d.parseDocument(ctx, doc, fy)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.DocumentFailures = append(report.DocumentFailures, doc.Name)
				d.logger.ErrorContext(ctx, "document failed",
					slog.String("document", doc.Name),
					slog.String("error", err.Error()))
				return nil
			}
			merged = append(merged, snaps...)
			report.RecordsExtracted += len(snaps) + dropped.total()
			for code, n := range dropped {
				report.RecordsDropped[code] += n
			}
			return nil
		})
	}
	// Workers only report errors through the merge above.
	_ = g.Wait()
	return merged
}

type dropTally map[string]int

func (t dropTally) total() int {
	n := 0
	for _, v := range t {
		n += v
	}
	return n
}

func (t dropTally) add(err error) {
	var pe *tixerrors.PipelineError
	if errors.As(err, &pe) {
		t[string(pe.Code)]++
		return
	}
	t["UNKNOWN"]++
}

// parseDocument runs one document through tokenize, layout detection,
// extraction, and normalization.
func (d *Driver) parseDocument(ctx context.Context, doc document.Document, fy normalize.FiscalYear) ([]*domain.PerformanceSnapshot, dropTally, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	dropped := make(dropTally)
	var records []domain.SalesRecord
	var recErrs []error

	switch doc.Kind {
	case document.KindSpreadsheet:
		grid, err := document.TokenizeWorkbook(doc.Path)
		if err != nil {
			return nil, nil, err
		}
		desc, err := d.detector.Detect(doc.Name, grid)
		if err != nil {
			return nil, nil, err
		}
		records, recErrs = d.sheets.Extract(doc, grid, desc)
	case document.KindPDF:
		tokens, err := document.TokenizePDF(doc.Path)
		if err != nil {
			return nil, nil, err
		}
		records, recErrs = d.pdfs.Extract(doc, tokens)
	default:
		return nil, nil, tixerrors.NewDocumentUnreadable(doc.Name, nil)
	}
	for _, err := range recErrs {
		dropped.add(err)
	}

	snaps := make([]*domain.PerformanceSnapshot, 0, len(records))
	for _, rec := range records {
		snap, err := d.normalizer.Normalize(doc, rec, fy)
		if err != nil {
			dropped.add(err)
			d.logger.WarnContext(ctx, "dropping record",
				slog.String("document", doc.Name),
				slog.Int("row", rec.SourceRow),
				slog.String("error", err.Error()))
			continue
		}
		snaps = append(snaps, snap)
	}
	d.logger.DebugContext(ctx, "parsed document",
		slog.String("document", doc.Name),
		slog.Int("snapshots", len(snaps)),
		slog.Int("dropped", dropped.total()))
	return snaps, dropped, nil
}

func filterByFiscalYear(snapshots []*domain.PerformanceSnapshot, label string) []*domain.PerformanceSnapshot {
	kept := snapshots[:0]
	for _, s := range snapshots {
		if s.FiscalYear == label {
			kept = append(kept, s)
		}
	}
	return kept
}

func modeLabel(opts RunOptions) string {
	if opts.DryRun {
		return "dry-run"
	}
	if opts.Clear {
		return ModeClear.String()
	}
	return ModeAppend.String()
}
