package slicer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-slicer/internal/config"
	"pdf-slicer/internal/document"
	"pdf-slicer/internal/errs"
	"pdf-slicer/internal/filesink"
	"pdf-slicer/internal/ranger"
)

type fakeDoc struct {
	pages     int
	failBegin int
	extracted [][2]int
	closed    int
}

func newDoc(pages int) *fakeDoc {
	return &fakeDoc{pages: pages, failBegin: -1}
}

func (d *fakeDoc) PageCount() int { return d.pages }

func (d *fakeDoc) ExtractPages(begin, end int) (document.PageSet, error) {
	if begin == d.failBegin {
		return nil, errors.New("corrupt page")
	}
	d.extracted = append(d.extracted, [2]int{begin, end})
	return fakePages{begin, end}, nil
}

func (d *fakeDoc) Close() error {
	d.closed++
	return nil
}

type fakePages struct{ begin, end int }

func (p fakePages) Len() int { return p.end - p.begin }

func (p fakePages) Write(w io.Writer) error {
	_, err := fmt.Fprintf(w, "[%d,%d)", p.begin, p.end)
	return err
}

// failingSink пишет в FileSink, но ломается на срезе failAt.
type failingSink struct {
	*filesink.FileSink
	failAt int
}

func (s failingSink) Write(index int, pages document.PageSet) (string, error) {
	if index == s.failAt {
		return s.Path(index), errors.New("disk full")
	}
	return s.FileSink.Write(index, pages)
}

type recorder struct {
	recs []Record
	err  error
}

func (r *recorder) Record(_ context.Context, rec Record) error {
	r.recs = append(r.recs, rec)
	return r.err
}

type observer struct {
	slices, pages int
	seen          []ranger.Range
	finished      bool
}

func (o *observer) Slice(r ranger.Range) { o.seen = append(o.seen, r) }
func (o *observer) Finish()              { o.finished = true }

func logTo(w io.Writer) *zerolog.Logger {
	l := zerolog.New(w)
	return &l
}

func baseConfig() config.SliceConfig {
	return config.SliceConfig{Filename: "book.pdf", SplitSize: 1, OutDir: "."}
}

func readSlices(t *testing.T, dir string) map[string]string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	out := map[string]string{}
	for _, e := range entries {
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}

	return out
}

func TestRunScenarios(t *testing.T) {
	tests := []struct {
		name  string
		cfg   func(c *config.SliceConfig)
		pages int
		want  map[string]string
	}{
		{
			name:  "one page per slice",
			cfg:   func(c *config.SliceConfig) {},
			pages: 5,
			want: map[string]string{
				"book1.pdf": "[0,1)", "book2.pdf": "[1,2)", "book3.pdf": "[2,3)",
				"book4.pdf": "[3,4)", "book5.pdf": "[4,5)",
			},
		},
		{
			name:  "pairs skipping one page",
			cfg:   func(c *config.SliceConfig) { c.SplitSize = 2; c.Step = 1 },
			pages: 10,
			want: map[string]string{
				"book1.pdf": "[0,2)", "book2.pdf": "[3,5)", "book3.pdf": "[6,8)", "book4.pdf": "[9,10)",
			},
		},
		{
			name:  "window inside the document",
			cfg:   func(c *config.SliceConfig) { c.Start = 2; c.SplitSize = 3; c.Stop = 5 },
			pages: 10,
			want:  map[string]string{"book1.pdf": "[2,5)"},
		},
		{
			name:  "stop beyond the last page",
			cfg:   func(c *config.SliceConfig) { c.SplitSize = 4; c.Stop = 50 },
			pages: 6,
			want:  map[string]string{"book1.pdf": "[0,4)", "book2.pdf": "[4,6)"},
		},
		{
			name:  "empty document",
			cfg:   func(c *config.SliceConfig) {},
			pages: 0,
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			cfg := baseConfig()
			tt.cfg(&cfg)

			stats, err := Run(context.Background(), cfg, newDoc(tt.pages), Options{Sink: filesink.New(dir, cfg.Filename)})
			require.NoError(t, err)

			assert.Equal(t, tt.want, readSlices(t, dir))
			assert.Equal(t, len(tt.want), stats.Slices)
			assert.Len(t, stats.Written, len(tt.want))
			assert.NotEmpty(t, stats.RunID)
		})
	}
}

func TestRunStartAfterStop(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.Start = 5
	cfg.Stop = 2
	doc := newDoc(10)

	_, err := Run(context.Background(), cfg, doc, Options{Sink: filesink.New(dir, cfg.Filename)})

	var cfgErr *errs.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "start after stop", cfgErr.Reason)
	assert.Empty(t, doc.extracted)
	assert.Empty(t, readSlices(t, dir))
}

func TestRunStartBeyondDocument(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.Start = 7

	_, err := Run(context.Background(), cfg, newDoc(5), Options{Sink: filesink.New(dir, cfg.Filename)})

	var cfgErr *errs.ConfigError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Empty(t, readSlices(t, dir))
}

func TestRunWriteFailureKeepsEarlierSlices(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	doc := newDoc(5)
	sink := failingSink{FileSink: filesink.New(dir, cfg.Filename), failAt: 3}

	stats, err := Run(context.Background(), cfg, doc, Options{Sink: sink})

	var wErr *errs.WriteError
	require.True(t, errors.As(err, &wErr))
	assert.Equal(t, 3, wErr.Index)
	assert.Equal(t, filepath.Join(dir, "book3.pdf"), wErr.Path)
	assert.ErrorContains(t, err, "disk full")

	assert.Equal(t, map[string]string{"book1.pdf": "[0,1)", "book2.pdf": "[1,2)"}, readSlices(t, dir))
	assert.Equal(t, 2, stats.Slices)
	// срезы после сбоя не извлекаются
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 3}}, doc.extracted)
}

func TestRunExtractFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.SplitSize = 2
	doc := newDoc(6)
	doc.failBegin = 2

	_, err := Run(context.Background(), cfg, doc, Options{Sink: filesink.New(dir, cfg.Filename)})

	var docErr *errs.DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.Equal(t, "book.pdf", docErr.Path)
	assert.ErrorContains(t, err, "slice 2 (pages 3-4)")
	assert.Equal(t, map[string]string{"book1.pdf": "[0,2)"}, readSlices(t, dir))
}

func TestRunOverwritesExistingSlices(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book1.pdf"), []byte("stale content"), 0o644))

	_, err := Run(context.Background(), baseConfig(), newDoc(1), Options{Sink: filesink.New(dir, "book.pdf")})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"book1.pdf": "[0,1)"}, readSlices(t, dir))
}

func TestRunVerboseLogsEverySlice(t *testing.T) {
	var buf bytes.Buffer
	cfg := baseConfig()
	cfg.SplitSize = 2
	cfg.Verbose = true

	_, err := Run(context.Background(), cfg, newDoc(5), Options{
		Sink: filesink.New(t.TempDir(), cfg.Filename),
		Log:  logTo(&buf),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "document has 5 page(s), 3 slice(s) planned")
	assert.Contains(t, out, "slicing pages 1 to 2 from file")
	assert.Contains(t, out, "slicing pages 3 to 4 from file")
	assert.Contains(t, out, "slicing pages 5 to 5 from file")
	assert.Equal(t, 3, strings.Count(out, "slicing pages"))
}

func TestRunQuietByDefault(t *testing.T) {
	var buf bytes.Buffer

	_, err := Run(context.Background(), baseConfig(), newDoc(3), Options{
		Sink: filesink.New(t.TempDir(), "book.pdf"),
		Log:  logTo(&buf),
	})
	require.NoError(t, err)

	assert.Empty(t, buf.String())
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, baseConfig(), newDoc(3), Options{Sink: filesink.New(dir, "book.pdf")})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, readSlices(t, dir))
}

func TestRunDryRun(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.SplitSize = 2
	cfg.DryRun = true
	doc := newDoc(4)
	obs := &observer{}

	stats, err := Run(context.Background(), cfg, doc, Options{
		Sink:     filesink.New(dir, cfg.Filename),
		Log:      logTo(&buf),
		Progress: func(int, int) Observer { return obs },
	})
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Slices)
	assert.Equal(t, 4, stats.Pages)
	assert.Empty(t, stats.Written)
	assert.Empty(t, doc.extracted)
	assert.Empty(t, readSlices(t, dir))
	assert.Empty(t, obs.seen)
	assert.Contains(t, buf.String(), "dry run: would write pages 3-4")
}

func TestRunRecordsJournalAndProgress(t *testing.T) {
	dir := t.TempDir()
	cfg := baseConfig()
	cfg.SplitSize = 2
	cfg.Step = 1
	rec := &recorder{err: errors.New("journal down")}
	obs := &observer{}

	stats, err := Run(context.Background(), cfg, newDoc(7), Options{
		Sink:     filesink.New(dir, cfg.Filename),
		Recorder: rec,
		RunID:    "run-1",
		Progress: func(slices, pages int) Observer {
			obs.slices, obs.pages = slices, pages
			return obs
		},
	})
	require.NoError(t, err, "journal failures must not fail the run")

	assert.Equal(t, "run-1", stats.RunID)
	assert.Equal(t, 3, obs.slices)
	assert.Equal(t, 5, obs.pages)
	assert.True(t, obs.finished)
	assert.Equal(t, []ranger.Range{{Index: 1, Begin: 0, End: 2}, {Index: 2, Begin: 3, End: 5}, {Index: 3, Begin: 6, End: 7}}, obs.seen)

	require.Len(t, rec.recs, 3)
	assert.Equal(t, Record{
		RunID:  "run-1",
		Source: "book.pdf",
		Range:  ranger.Range{Index: 2, Begin: 3, End: 5},
		Path:   filepath.Join(dir, "book2.pdf"),
	}, rec.recs[1])
}

func TestRunRequiresSink(t *testing.T) {
	_, err := Run(context.Background(), baseConfig(), newDoc(1), Options{})
	assert.Error(t, err)
}

func TestRunFile(t *testing.T) {
	t.Run("closes the document after success", func(t *testing.T) {
		doc := newDoc(2)
		dir := t.TempDir()

		stats, err := RunFile(context.Background(), baseConfig(), func(string) (document.Handle, error) { return doc, nil },
			Options{Sink: filesink.New(dir, "book.pdf")})
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Slices)
		assert.Equal(t, 1, doc.closed)
	})

	t.Run("closes the document after a failure", func(t *testing.T) {
		doc := newDoc(3)
		dir := t.TempDir()

		_, err := RunFile(context.Background(), baseConfig(), func(string) (document.Handle, error) { return doc, nil },
			Options{Sink: failingSink{FileSink: filesink.New(dir, "book.pdf"), failAt: 1}})
		assert.Error(t, err)
		assert.Equal(t, 1, doc.closed)
	})

	t.Run("open failure becomes a document error", func(t *testing.T) {
		dir := t.TempDir()

		_, err := RunFile(context.Background(), baseConfig(), func(string) (document.Handle, error) {
			return nil, errors.New("not a pdf")
		}, Options{Sink: filesink.New(dir, "book.pdf")})

		var docErr *errs.DocumentError
		require.True(t, errors.As(err, &docErr))
		assert.Equal(t, "book.pdf", docErr.Path)
		assert.Empty(t, readSlices(t, dir))
	})

	t.Run("bad filename never reaches the opener", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Filename = "book.txt"
		opened := false

		_, err := RunFile(context.Background(), cfg, func(string) (document.Handle, error) {
			opened = true
			return newDoc(1), nil
		}, Options{Sink: filesink.New(t.TempDir(), cfg.Filename)})

		var cfgErr *errs.ConfigError
		assert.True(t, errors.As(err, &cfgErr))
		assert.False(t, opened)
	})

	t.Run("start after stop never reaches the opener", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Start = 5
		cfg.Stop = 2
		opened := false

		_, err := RunFile(context.Background(), cfg, func(string) (document.Handle, error) {
			opened = true
			return newDoc(10), nil
		}, Options{Sink: filesink.New(t.TempDir(), cfg.Filename)})

		var cfgErr *errs.ConfigError
		assert.True(t, errors.As(err, &cfgErr))
		assert.False(t, opened)
	})
}
