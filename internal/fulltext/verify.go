package fulltext

import (
	"bytes"
	"os"

	"github.com/ledongthuc/pdf"
)

// pdfMagic is the required file signature; publishers frequently return an
// HTML error page with a 200 status, so a suffix check is never enough.
var pdfMagic = []byte("%PDF-")

// IsPDF reports whether the file at path is an actual PDF document.
// It checks the magic bytes first and then asks the PDF parser to open the
// file, rejecting truncated or masquerading payloads.
func IsPDF(path string) bool {
	head := make([]byte, len(pdfMagic))
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	n, err := f.Read(head)
	f.Close()
	if err != nil || n < len(pdfMagic) || !bytes.Equal(head[:len(pdfMagic)], pdfMagic) {
		return false
	}

	pf, r, err := pdf.Open(path)
	if err != nil {
		return false
	}
	defer pf.Close()
	return r.NumPage() > 0
}
