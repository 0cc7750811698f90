package document

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"pdf-slicer/internal/errs"
)

func init() {
	// не трогаем ~/.config/pdfcpu
	api.DisableConfigDir()
}

type PDF struct {
	f   *os.File
	ctx *model.Context
}

// Open читает и валидирует PDF. Любая ошибка возвращается как *errs.DocumentError,
// файл при этом закрыт.
func Open(path string) (*PDF, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.DocumentError{Path: path, Err: err}
	}

	ctx, err := read(f)
	if err != nil {
		_ = f.Close()
		return nil, &errs.DocumentError{Path: path, Err: err}
	}

	return &PDF{f: f, ctx: ctx}, nil
}

func read(rs io.ReadSeeker) (*model.Context, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}

	return ctx, nil
}

func (d *PDF) PageCount() int {
	return d.ctx.PageCount
}

func (d *PDF) ExtractPages(begin, end int) (PageSet, error) {
	if begin < 0 || end > d.ctx.PageCount || begin > end {
		return nil, fmt.Errorf("page range [%d, %d) outside document of %d pages", begin, end, d.ctx.PageCount)
	}

	// pdfcpu нумерует страницы с 1
	nrs := make([]int, 0, end-begin)
	for p := begin; p < end; p++ {
		nrs = append(nrs, p+1)
	}

	if len(nrs) == 0 {
		return nil, fmt.Errorf("empty page range [%d, %d)", begin, end)
	}

	out, err := pdfcpu.ExtractPages(d.ctx, nrs, false)
	if err != nil {
		return nil, fmt.Errorf("extract pages %d-%d: %w", begin+1, end, err)
	}

	return &pdfPages{ctx: out, n: len(nrs)}, nil
}

func (d *PDF) Close() error {
	if d.f == nil {
		return nil
	}

	err := d.f.Close()
	d.f = nil

	return err
}

type pdfPages struct {
	ctx *model.Context
	n   int
}

func (p *pdfPages) Len() int {
	return p.n
}

func (p *pdfPages) Write(w io.Writer) error {
	return api.WriteContext(p.ctx, w)
}

// OpenHandle - Open для мест, где нужен интерфейс Handle.
func OpenHandle(path string) (Handle, error) {
	d, err := Open(path)
	if err != nil {
		return nil, err
	}

	return d, nil
}
