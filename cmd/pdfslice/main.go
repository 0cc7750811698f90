package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pdf-slicer/internal/config"
	"pdf-slicer/internal/errs"
	"pdf-slicer/internal/progress"
)

func main() {
	// контекст с отменой по сигналу
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 2)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() { <-sig; cancel() }()

	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	cancel()
	os.Exit(code)
}

// run выполняет одну команду и возвращает код выхода. Ошибка логируется здесь и только здесь.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log.Logger = newLogger(stderr, zerolog.WarnLevel)

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		log.Error().Err(err).Int("exit", exitCode(err)).Msg("pdfslice failed")
	}

	return exitCode(err)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pdfslice <file.pdf>",
		Short: "Slice a PDF into separate files of N pages each",
		Long: `pdfslice copies page ranges of a PDF into new files named <name><n>.pdf.

Each slice takes --pages pages, then --skip pages are left out before the next
slice starts. --from and --to bound the window (1-indexed, --to 0 = last page).
Every flag can also be set through the environment, e.g. PDFSLICE_PAGES=2.`,
		Args:          filenameArg,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(cmd.Flags())
			if err != nil {
				return err
			}

			cfg, err := config.Load(v, args[0])
			if err != nil {
				return err
			}

			level, err := logLevel(cfg)
			if err != nil {
				return err
			}
			log.Logger = newLogger(stderr, level)

			return slice(cmd.Context(), cfg, log.Logger, stdout)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errs.Config("%v", err)
	})

	config.RegisterFlags(cmd.Flags())
	cmd.Flags().SortFlags = false

	return cmd
}

func filenameArg(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return errs.Config("filename is required")
	case 1:
		return nil
	default:
		return errs.Config("expected one filename, got %d arguments", len(args))
	}
}

// logLevel: --log-level важнее --verbose.
func logLevel(cfg config.SliceConfig) (zerolog.Level, error) {
	if cfg.LogLevel != "" {
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return zerolog.NoLevel, errs.Config("unknown log level %q", cfg.LogLevel)
		}
		return level, nil
	}

	if cfg.Verbose {
		return zerolog.InfoLevel, nil
	}

	return zerolog.WarnLevel, nil
}

func newLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
		NoColor:    !isTTY(w),
	}

	return zerolog.New(console).Level(level).With().Timestamp().Logger()
}

func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return progress.IsTerminal(f)
}
