package bibdesk

import (
	"bytes"
	"os"
)

// hasAnnotations reports whether a PDF file carries user-added annotation
// content. It scans the raw file for text-annotation contents and Apple's
// markup extras; both markers survive incremental saves.
func hasAnnotations(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if bytes.Contains(data, []byte("Contents (")) || bytes.Contains(data, []byte("Contents(")) {
		return true
	}
	return bytes.Contains(data, []byte("AAPL:AKExtras"))
}
