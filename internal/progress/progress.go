package progress

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"pdf-slicer/internal/ranger"
	"pdf-slicer/internal/util"
)

// Reporter печатает строку прогресса после каждого записанного среза.
// На терминале строка перерисовывается на месте, иначе уходит в лог.
type Reporter struct {
	out         io.Writer
	log         zerolog.Logger
	inline      bool
	totalSlices int
	totalPages  int
	doneSlices  int
	donePages   int
	start       time.Time
	now         func() time.Time
}

func New(out io.Writer, log zerolog.Logger, totalSlices, totalPages int, inline bool) *Reporter {
	return &Reporter{
		out:         out,
		log:         log,
		inline:      inline,
		totalSlices: totalSlices,
		totalPages:  totalPages,
		start:       time.Now(),
		now:         time.Now,
	}
}

// Slice учитывает готовый срез и выводит строку.
func (r *Reporter) Slice(rg ranger.Range) {
	r.doneSlices++
	r.donePages += rg.Pages()

	line := r.line(rg)

	if r.inline {
		fmt.Fprintf(r.out, "\r\033[2K%s", line)
	} else {
		r.log.Info().Msg(line)
	}
}

// Finish завершает строку на терминале.
func (r *Reporter) Finish() {
	if r.inline && r.doneSlices > 0 {
		fmt.Fprintln(r.out)
	}
}

func (r *Reporter) line(rg ranger.Range) string {
	pct := 100.0 * float64(r.donePages) / math.Max(float64(r.totalPages), 1)
	if pct > 100 {
		pct = 100
	}

	eta := ""
	elapsed := r.now().Sub(r.start).Seconds()
	if r.donePages > 0 && elapsed > 0 {
		pps := float64(r.donePages) / elapsed
		remain := math.Max(float64(r.totalPages-r.donePages), 0)
		eta = (time.Duration(remain/pps) * time.Second).Truncate(time.Second).String()
	}

	return fmt.Sprintf("[PROGRESS] slice %d/%d pages %d-%d (%s/%s) %.1f%% ETA=%s",
		r.doneSlices, r.totalSlices, rg.Begin+1, rg.End,
		util.FormatNumber(uint64(r.donePages)), util.FormatNumber(uint64(r.totalPages)),
		pct, eta)
}

// IsTerminal сообщает, подключён ли f к терминалу.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
