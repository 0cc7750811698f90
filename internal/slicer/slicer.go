package slicer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"pdf-slicer/internal/config"
	"pdf-slicer/internal/document"
	"pdf-slicer/internal/errs"
	"pdf-slicer/internal/ranger"
	"pdf-slicer/internal/util"
)

// Sink создаёт выходной файл для среза. Реализация - filesink.FileSink.
type Sink interface {
	Path(index int) string
	Write(index int, pages document.PageSet) (string, error)
}

// Record - запись журнала о готовом срезе.
type Record struct {
	RunID  string
	Source string
	Range  ranger.Range
	Path   string
}

type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

type Observer interface {
	Slice(r ranger.Range)
	Finish()
}

// Options: Sink обязателен, остальное опционально.
// Progress вызывается один раз, когда план известен.
type Options struct {
	Sink     Sink
	Recorder Recorder
	Progress func(slices, pages int) Observer
	Log      *zerolog.Logger
	RunID    string
}

func (o Options) logger() zerolog.Logger {
	if o.Log == nil {
		return zerolog.Nop()
	}

	return *o.Log
}

type Stats struct {
	RunID   string
	Slices  int
	Pages   int
	Written []string
	Elapsed time.Duration
}

// Opener открывает исходный документ; см. document.OpenHandle.
type Opener func(path string) (document.Handle, error)

// PlanFor разрешает stop по реальному числу страниц и строит план.
func PlanFor(cfg config.SliceConfig, totalPages int) (*ranger.Plan, error) {
	return ranger.New(
		cfg.Start,
		cfg.SplitSize,
		cfg.Step,
		ranger.ResolveStop(cfg.Stop, totalPages),
		totalPages,
	)
}

// RunFile открывает документ, режет его и закрывает на любом пути выхода.
func RunFile(ctx context.Context, cfg config.SliceConfig, open Opener, opts Options) (Stats, error) {
	if err := config.Validate(cfg); err != nil {
		return Stats{}, err
	}

	doc, err := open(cfg.Filename)
	if err != nil {
		return Stats{}, asDocumentError(cfg.Filename, err)
	}
	defer func() {
		if err := doc.Close(); err != nil {
			logger := opts.logger()
			logger.Warn().Err(err).Str("file", cfg.Filename).Msg("close source document")
		}
	}()

	return Run(ctx, cfg, doc, opts)
}

// Run режет уже открытый документ. Срезы пишутся строго по порядку;
// при ошибке записи оставшиеся срезы пропускаются, уже записанные остаются.
func Run(ctx context.Context, cfg config.SliceConfig, doc document.Handle, opts Options) (Stats, error) {
	started := time.Now()

	if opts.Sink == nil {
		return Stats{}, fmt.Errorf("slicer: no sink configured")
	}

	runID := opts.RunID
	if runID == "" {
		runID = newRunID()
	}

	stats := Stats{RunID: runID}
	log := opts.logger().With().Str("run", runID).Str("file", cfg.Filename).Logger()

	total := doc.PageCount()

	plan, err := PlanFor(cfg, total)
	if err != nil {
		return stats, err
	}

	if cfg.Verbose {
		log.Info().
			Int("pages", total).
			Int("slices", plan.Len()).
			Msgf("document has %d page(s), %d slice(s) planned", total, plan.Len())
	}

	var obs Observer
	if opts.Progress != nil && !cfg.DryRun {
		obs = opts.Progress(plan.Len(), plan.Pages())
		defer obs.Finish()
	}

	it := plan.Iter()
	for r, ok := it.Next(); ok; r, ok = it.Next() {
		if err := ctx.Err(); err != nil {
			stats.Elapsed = time.Since(started)
			return stats, fmt.Errorf("interrupted before slice %d: %w", r.Index, err)
		}

		if cfg.DryRun {
			log.Info().
				Int("slice", r.Index).
				Str("output", opts.Sink.Path(r.Index)).
				Msgf("dry run: would write %s", util.PageSpan(r.Begin, r.End))
			stats.Slices++
			stats.Pages += r.Pages()
			continue
		}

		if cfg.Verbose {
			log.Info().
				Int("slice", r.Index).
				Int("from", r.Begin+1).
				Int("to", r.End).
				Msgf("slicing pages %d to %d from file", r.Begin+1, r.End)
		}

		path, err := writeSlice(doc, opts.Sink, cfg.Filename, r)
		if err != nil {
			stats.Elapsed = time.Since(started)
			return stats, err
		}

		stats.Slices++
		stats.Pages += r.Pages()
		stats.Written = append(stats.Written, path)

		if obs != nil {
			obs.Slice(r)
		}

		if opts.Recorder != nil {
			rec := Record{RunID: runID, Source: cfg.Filename, Range: r, Path: path}
			if err := opts.Recorder.Record(ctx, rec); err != nil {
				log.Warn().Err(err).Int("slice", r.Index).Msg("slice journal")
			}
		}
	}

	stats.Elapsed = time.Since(started)

	return stats, nil
}

func writeSlice(doc document.Handle, sink Sink, source string, r ranger.Range) (string, error) {
	pages, err := doc.ExtractPages(r.Begin, r.End)
	if err != nil {
		return "", &errs.DocumentError{
			Path: source,
			Err:  fmt.Errorf("slice %d (%s): %w", r.Index, util.PageSpan(r.Begin, r.End), err),
		}
	}

	path, err := sink.Write(r.Index, pages)
	if err != nil {
		return "", &errs.WriteError{Index: r.Index, Path: path, Err: err}
	}

	return path, nil
}

func asDocumentError(path string, err error) error {
	var docErr *errs.DocumentError
	if errors.As(err, &docErr) {
		return err
	}

	return &errs.DocumentError{Path: path, Err: err}
}

func newRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
