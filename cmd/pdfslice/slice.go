package main

import (
	"context"
	"database/sql"
	"io"
	"math"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"pdf-slicer/internal/archive"
	"pdf-slicer/internal/config"
	"pdf-slicer/internal/dbx"
	"pdf-slicer/internal/document"
	"pdf-slicer/internal/filesink"
	"pdf-slicer/internal/progress"
	"pdf-slicer/internal/slicer"
	"pdf-slicer/internal/util"
)

func slice(ctx context.Context, cfg config.SliceConfig, logger zerolog.Logger, stdout io.Writer) error {
	if cfg.Verbose {
		echoParams(logger, cfg)
	}

	sink := filesink.New(cfg.OutDir, cfg.Filename)
	opts := slicer.Options{Sink: sink, Log: &logger}

	if cfg.Progress {
		inline := isTTY(stdout)
		opts.Progress = func(slices, pages int) slicer.Observer {
			return progress.New(stdout, logger, slices, pages, inline)
		}
	}

	// журнал необязателен: не открылся - режем без него
	if cfg.JournalDSN != "" && !cfg.DryRun {
		journal, db := openJournal(ctx, cfg, logger)
		if journal != nil {
			defer func() {
				_ = journal.Close()
				_ = db.Close()
			}()
			opts.Recorder = journal
		}
	}

	stats, err := slicer.RunFile(ctx, cfg, document.OpenHandle, opts)
	if err != nil {
		if len(stats.Written) > 0 {
			logger.Warn().
				Int("written", len(stats.Written)).
				Msg("slices written before the failure are left in place")
		}
		return err
	}

	printFinalStat(logger, stats)

	if cfg.Archive && !cfg.DryRun && len(stats.Written) > 0 {
		archiveAndSafeRemove(logger, stats.Written, cfg.OutDir, sink.Base())
	}

	return nil
}

func echoParams(logger zerolog.Logger, cfg config.SliceConfig) {
	logger.Info().Msgf("Slicing file %s", cfg.Filename)
	logger.Info().Msgf("Starting at page %d.", cfg.Start+1)
	logger.Info().Msgf("Taking %d page(s) per slice.", cfg.SplitSize)
	logger.Info().Msgf("Skipping %d page(s) in between slices.", cfg.Step)
	if cfg.Stop != 0 {
		logger.Info().Msgf("Stopping at page %d.", cfg.Stop)
	}
	logger.Info().Msgf("Writing slices to %s", cfg.OutDir)
}

func openJournal(ctx context.Context, cfg config.SliceConfig, logger zerolog.Logger) (*dbx.Journal, *sql.DB) {
	db, err := dbx.Open(ctx, cfg.JournalDSN)
	if err != nil {
		logger.Warn().Err(err).Msg("slice journal disabled")
		return nil, nil
	}

	journal, err := dbx.NewJournal(ctx, db, cfg.JournalTable, logger)
	if err != nil {
		_ = db.Close()
		logger.Warn().Err(err).Msg("slice journal disabled")
		return nil, nil
	}

	return journal, db
}

func printFinalStat(logger zerolog.Logger, stats slicer.Stats) {
	pps := float64(stats.Pages) / math.Max(stats.Elapsed.Seconds(), 0.0001)

	logger.Info().Msg("------------------------------------------------------------")
	logger.Info().Msgf("[STATS] run: %s", stats.RunID)
	logger.Info().Msgf("[STATS] slices: %s", util.FormatNumber(uint64(stats.Slices)))
	logger.Info().Msgf("[STATS] pages: %s", util.FormatNumber(uint64(stats.Pages)))
	logger.Info().Msgf("[STATS] elapsed: %s", stats.Elapsed.Truncate(time.Millisecond))
	logger.Info().Msgf("[STATS] speed: %.0f pages/s", pps)
	logger.Info().Msg("------------------------------------------------------------")
}

func archiveAndSafeRemove(logger zerolog.Logger, files []string, outDir, base string) {
	archivePath := filepath.Join(outDir, base+".tar.gz")
	startZip := time.Now()

	if err := archive.TarGzFiles(files, archivePath); err != nil {
		logger.Warn().Err(err).Msg("cannot archive slices")
		return
	}

	if err := archive.Verify(archivePath, files); err != nil {
		logger.Warn().Err(err).Msg("archive check failed, slices kept")
		return
	}

	dur := time.Since(startZip).Truncate(time.Millisecond)
	logger.Info().Msgf("archive created: %s (in %s)", archivePath, dur)

	if err := util.SafeRemoveAll(files, outDir); err != nil {
		logger.Warn().Err(err).Msg("slices not removed")
		return
	}

	logger.Info().Int("files", len(files)).Msg("removed archived slices")
}
