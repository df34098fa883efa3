package bibdesk

import (
	"fmt"
	"os"
	"strings"
)

// SafeDelete removes a publication together with its unannotated linked
// PDFs. A PDF with Skim notes or embedded annotations is never discarded:
// it is renamed with a _notes_N suffix (first free N) and its path is
// returned so the caller can re-attach it to the replacement entry. A
// matching .skim companion file is renamed alongside. The cached listing
// is refreshed after the delete.
func (c *Client) SafeDelete(pid string) ([]string, error) {
	files, err := c.LinkedFilePaths(pid)
	if err != nil {
		return nil, fmt.Errorf("listing linked files: %w", err)
	}
	skimNotes, err := c.SkimNotes(pid)
	if err != nil {
		return nil, fmt.Errorf("listing Skim notes: %w", err)
	}

	var kept []string
	for i, f := range files {
		if f == "" || !strings.HasSuffix(strings.ToLower(f), ".pdf") {
			continue
		}

		// Already a preserved copy from an earlier merge.
		if strings.Contains(f, "_notes_") {
			kept = append(kept, f)
			continue
		}

		note := ""
		if i < len(skimNotes) {
			note = skimNotes[i]
		}
		if note != "" || hasAnnotations(f) {
			backup, err := preserveAnnotated(f)
			if err != nil {
				return kept, err
			}
			kept = append(kept, backup)
		} else {
			os.Remove(f)
		}
	}

	if err := c.Delete(pid); err != nil {
		return kept, fmt.Errorf("deleting publication: %w", err)
	}
	if err := c.Refresh(); err != nil {
		return kept, err
	}
	return kept, nil
}

// preserveAnnotated renames an annotated PDF (and any .skim companion) to
// the first free _notes_N name and returns the new path.
func preserveAnnotated(path string) (string, error) {
	base := strings.TrimSuffix(path, ".pdf")
	base = strings.TrimSuffix(base, ".PDF")

	suffix := 1
	backup := fmt.Sprintf("%s_notes_%d.pdf", base, suffix)
	for {
		if _, err := os.Stat(backup); os.IsNotExist(err) {
			break
		}
		suffix++
		backup = fmt.Sprintf("%s_notes_%d.pdf", base, suffix)
	}

	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("preserving annotated PDF: %w", err)
	}
	if _, err := os.Stat(base + ".skim"); err == nil {
		os.Rename(base+".skim", fmt.Sprintf("%s_notes_%d.skim", base, suffix))
	}
	return backup, nil
}
