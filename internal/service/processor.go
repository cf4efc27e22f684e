package service

import (
	"context"
	"fmt"
	"time"

	"data-pipeline/internal/cleaner"
	"data-pipeline/internal/loader"
	"data-pipeline/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TableWriter persists a cleaned table
type TableWriter interface {
	ReplaceTable(ctx context.Context, name string, t *models.Table) error
	Close() error
}

// OpenWriter opens the store at dbPath. It is only called once the inputs
// have been loaded and cleaned.
type OpenWriter func(dbPath string) (TableWriter, error)

// Request names the inputs and output of one run
type Request struct {
	MessagesPath   string
	CategoriesPath string
	DatabasePath   string
}

// RunSummary describes a completed run
type RunSummary struct {
	RunID      string
	Request    Request
	TableName  string
	MergedRows int
	Report     cleaner.Report
	Duration   time.Duration
}

// Processor runs the load, clean and save stages
type Processor struct {
	open      OpenWriter
	tableName string
	opts      cleaner.Options
	logger    *zap.Logger
}

// NewProcessor creates a new processor service
func NewProcessor(
	open OpenWriter,
	tableName string,
	opts cleaner.Options,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		open:      open,
		tableName: tableName,
		opts:      opts,
		logger:    logger,
	}
}

// Run loads both datasets, cleans the merged table and writes it once
func (p *Processor) Run(ctx context.Context, req Request) (*RunSummary, error) {
	start := time.Now()
	summary := &RunSummary{
		RunID:     uuid.New().String(),
		Request:   req,
		TableName: p.tableName,
	}
	log := p.logger.With(zap.String("run_id", summary.RunID))

	log.Info("Loading data...",
		zap.String("messages", req.MessagesPath),
		zap.String("categories", req.CategoriesPath))

	merged, err := loader.Load(req.MessagesPath, req.CategoriesPath)
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	summary.MergedRows = merged.Len()

	log.Info("Cleaning data...", zap.Int("merged_rows", merged.Len()))

	cleaned, report, err := cleaner.Clean(merged, p.opts)
	if err != nil {
		return nil, fmt.Errorf("clean failed: %w", err)
	}
	summary.Report = report

	log.Info("Data cleaned",
		zap.Int("categories", len(report.Categories)),
		zap.Int("duplicates_removed", report.DuplicatesRemoved),
		zap.Int("sentinel_removed", report.SentinelRemoved),
		zap.Int("rows", report.OutputRows))
	if report.NonBinaryValues > 0 {
		log.Warn("Category columns contain values outside {0,1}",
			zap.Int("count", report.NonBinaryValues))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Info("Saving data...",
		zap.String("database", req.DatabasePath),
		zap.String("table", p.tableName))

	if err := p.save(ctx, req.DatabasePath, cleaned); err != nil {
		return nil, fmt.Errorf("save failed: %w", err)
	}

	summary.Duration = time.Since(start)
	log.Info("Cleaned data saved to database!", zap.Duration("duration", summary.Duration))

	return summary, nil
}

// save opens the store, replaces the table and releases the store on every path
func (p *Processor) save(ctx context.Context, dbPath string, t *models.Table) (err error) {
	w, err := p.open(dbPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close store: %w", cerr)
		}
	}()

	return w.ReplaceTable(ctx, p.tableName, t)
}
