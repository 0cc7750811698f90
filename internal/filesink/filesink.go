package filesink

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"

	"pdf-slicer/internal/document"
)

const bufferSize = 1 << 20

// FileSink пишет срезы в файлы <base><index>.pdf внутри dir.
// Существующие файлы с тем же именем перезаписываются.
type FileSink struct {
	dir  string
	base string
}

// New берёт имя исходника без каталога и расширения.
func New(dir, source string) *FileSink {
	return &FileSink{
		dir:  dir,
		base: BaseName(source),
	}
}

func BaseName(source string) string {
	name := filepath.Base(source)
	return name[:len(name)-len(filepath.Ext(name))]
}

func (s *FileSink) Base() string {
	return s.base
}

// Path - имя файла среза без создания.
func (s *FileSink) Path(index int) string {
	return filepath.Join(s.dir, s.base+strconv.Itoa(index)+".pdf")
}

// Write создаёт файл среза, пишет в него страницы и закрывает.
func (s *FileSink) Write(index int, pages document.PageSet) (string, error) {
	path := s.Path(index)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return path, err
	}

	f, err := os.Create(path)
	if err != nil {
		return path, err
	}

	a := &artifact{f: f, bw: bufio.NewWriterSize(f, bufferSize)}

	if err := pages.Write(a.bw); err != nil {
		_ = a.Close()
		return path, err
	}

	if err := a.Close(); err != nil {
		return path, err
	}

	return path, nil
}

type artifact struct {
	f  *os.File
	bw *bufio.Writer
}

func (a *artifact) Close() error {
	var err error

	if a.bw != nil {
		if e := a.bw.Flush(); e != nil && err == nil {
			err = e
		}
	}

	if a.f != nil {
		if e := a.f.Sync(); e != nil && err == nil {
			err = e
		}
		if e := a.f.Close(); e != nil && err == nil {
			err = e
		}
	}

	a.f, a.bw = nil, nil

	return err
}
