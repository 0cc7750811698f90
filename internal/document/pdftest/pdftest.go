// Package pdftest builds tiny PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// FirstWidth is the MediaBox width of page 1; page i is FirstWidth+i points wide,
// so page order survives a round trip through any PDF writer.
const FirstWidth = 100

// Sample returns a PDF with n empty pages.
func Sample(n int) []byte {
	var b bytes.Buffer
	offsets := make([]int, 0, n+2)

	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")

	kids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", i+3))
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), n))
	for i := 0; i < n; i++ {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %d 300] /Resources << >> >>", FirstWidth+i))
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(offsets)+1)
	b.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return b.Bytes()
}

// WriteSample writes Sample(n) as dir/name and returns the path.
func WriteSample(t testing.TB, dir, name string, n int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Sample(n), 0o644); err != nil {
		t.Fatalf("write sample pdf: %v", err)
	}

	return path
}
