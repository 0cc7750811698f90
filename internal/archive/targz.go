package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type Entry struct {
	Name string
	Size int64
	R    io.Reader // ограниченный ридер на entry (не читать после Size)
}

// Iterate открывает tar.gz и вызывает cb для каждого .pdf файла
func Iterate(path string, cb func(Entry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	for {
		hdr, err := tr.Next()

		if err == io.EOF {
			return nil
		}

		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}

		if hdr.FileInfo().IsDir() {
			continue
		}

		if !strings.HasSuffix(strings.ToLower(hdr.Name), ".pdf") {
			continue
		}

		if err = cb(Entry{Name: hdr.Name, Size: hdr.Size, R: io.LimitReader(tr, hdr.Size)}); err != nil {
			return err
		}
	}
}

// Verify проверяет, что в архиве есть каждый из files с тем же размером.
func Verify(path string, files []string) error {
	want := make(map[string]int64, len(files))
	for _, p := range files {
		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		want[filepath.Base(p)] = info.Size()
	}

	err := Iterate(path, func(e Entry) error {
		size, ok := want[e.Name]
		if !ok {
			return nil
		}
		if size != e.Size {
			return fmt.Errorf("%s: archived %d bytes, file has %d", e.Name, e.Size, size)
		}
		delete(want, e.Name)
		return nil
	})
	if err != nil {
		return err
	}

	if len(want) > 0 {
		missing := make([]string, 0, len(want))
		for name := range want {
			missing = append(missing, name)
		}
		sort.Strings(missing)

		return fmt.Errorf("%s missing from %s", strings.Join(missing, ", "), path)
	}

	return nil
}

// TarGzFiles упаковывает файлы в dstPath (например "./book.tar.gz").
// В архиве остаются только имена файлов, без каталогов.
func TarGzFiles(files []string, dstPath string) (err error) {
	out, err := os.Create(dstPath)
	if err != nil {
		return err
	}
	defer func() {
		if e := out.Close(); e != nil && err == nil {
			err = e
		}
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, path := range files {
		if err := addFile(tw, path); err != nil {
			return fmt.Errorf("add %s: %w", path, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}

	return gz.Close()
}

func addFile(tw *tar.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(path)

	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}

	_, err = io.Copy(tw, f)

	return err
}
