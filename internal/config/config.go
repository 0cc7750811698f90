package config

import (
	"regexp"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"pdf-slicer/internal/errs"
)

const EnvPrefix = "PDFSLICE"

const (
	KeyFrom         = "from"
	KeyPages        = "pages"
	KeySkip         = "skip"
	KeyTo           = "to"
	KeyVerbose      = "verbose"
	KeyOut          = "out"
	KeyProgress     = "progress"
	KeyArchive      = "archive"
	KeyDryRun       = "dry-run"
	KeyLogLevel     = "log-level"
	KeyJournalDSN   = "journal-dsn"
	KeyJournalTable = "journal-table"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

// SliceConfig - параметры одного запуска. Страницы внутри нумеруются с нуля,
// Stop - исключающая граница, 0 означает конец документа.
type SliceConfig struct {
	Filename  string
	Start     int
	SplitSize int
	Step      int
	Stop      int
	Verbose   bool

	// Вывод
	OutDir   string
	Progress bool
	Archive  bool
	DryRun   bool
	LogLevel string

	// Журнал срезов (MySQL), пустой DSN - выключен
	JournalDSN   string
	JournalTable string
}

func RegisterFlags(fs *pflag.FlagSet) {
	fs.IntP(KeyFrom, "f", 1, "Starting page number, counting up from 1")
	fs.IntP(KeyPages, "p", 1, "How many pages to put into each slice")
	fs.IntP(KeySkip, "s", 0, "Pages to skip in between slices")
	fs.IntP(KeyTo, "t", 0, "Page number to stop at (0 = end of document)")
	fs.BoolP(KeyVerbose, "v", false, "Produce more feedback while running")

	fs.StringP(KeyOut, "o", ".", "Output directory")
	fs.Bool(KeyProgress, false, "Render a progress line per slice")
	fs.Bool(KeyArchive, false, "Pack the written slices into <name>.tar.gz and remove the loose files")
	fs.Bool(KeyDryRun, false, "Plan and log the slices without writing them")
	fs.String(KeyLogLevel, "", "Log level (debug, info, warn, error); overrides --verbose")

	fs.String(KeyJournalDSN, "", "MySQL DSN of the slice journal (empty = off)")
	fs.String(KeyJournalTable, "slice_journal", "Slice journal table")
}

// NewViper связывает флаги с переменными окружения PDFSLICE_*. Явно заданный флаг важнее окружения.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}

	return v, nil
}

// Load переводит пользовательские (с 1) номера страниц во внутренние и проверяет их.
func Load(v *viper.Viper, filename string) (SliceConfig, error) {
	from := v.GetInt(KeyFrom)

	c := SliceConfig{
		Filename:  filename,
		Start:     from - 1,
		SplitSize: v.GetInt(KeyPages),
		Step:      v.GetInt(KeySkip),
		Stop:      v.GetInt(KeyTo),
		Verbose:   v.GetBool(KeyVerbose),

		OutDir:   v.GetString(KeyOut),
		Progress: v.GetBool(KeyProgress),
		Archive:  v.GetBool(KeyArchive),
		DryRun:   v.GetBool(KeyDryRun),
		LogLevel: strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),

		JournalDSN:   strings.TrimSpace(v.GetString(KeyJournalDSN)),
		JournalTable: strings.TrimSpace(v.GetString(KeyJournalTable)),
	}

	if c.OutDir == "" {
		c.OutDir = "."
	}

	if from < 1 {
		return SliceConfig{}, errs.Config("--from must be at least 1, got %d", from)
	}

	if err := Validate(c); err != nil {
		return SliceConfig{}, err
	}

	return c, nil
}

func Validate(c SliceConfig) error {
	if c.Filename == "" {
		return errs.Config("filename is required")
	}

	if !strings.HasSuffix(strings.ToLower(c.Filename), ".pdf") {
		return errs.Config("supplied file %q is not recognized as a .pdf", c.Filename)
	}

	if c.Start < 0 {
		return errs.Config("start page must not be negative, got %d", c.Start)
	}

	if c.SplitSize < 1 {
		return errs.Config("pages per slice must be at least 1, got %d", c.SplitSize)
	}

	if c.Step < 0 {
		return errs.Config("skip must not be negative, got %d", c.Step)
	}

	if c.Stop < 0 {
		return errs.Config("stop page must not be negative, got %d", c.Stop)
	}

	// stop=0 разрешится только после открытия документа
	if c.Stop != 0 && c.Start > c.Stop {
		return errs.Config("start after stop")
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return errs.Config("unknown log level %q", c.LogLevel)
	}

	if c.JournalDSN != "" && !tableName.MatchString(c.JournalTable) {
		return errs.Config("invalid journal table name %q", c.JournalTable)
	}

	return nil
}
