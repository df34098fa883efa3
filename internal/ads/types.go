// Package ads provides a client for the NASA/ADS search and export API.
package ads

import "strings"

// Article represents a single article record returned by the ADS search
// endpoint. Records are created per lookup and never mutated.
type Article struct {
	Bibcode           string   `json:"bibcode"`
	AlternateBibcodes []string `json:"alternate_bibcode,omitempty"`
	Identifiers       []string `json:"identifier,omitempty"`
	Title             []string `json:"title,omitempty"`
	Authors           []string `json:"author,omitempty"`
	FirstAuthor       string   `json:"first_author,omitempty"`
	Abstract          string   `json:"abstract,omitempty"`
	Year              string   `json:"year,omitempty"`
	PubDate           string   `json:"pubdate,omitempty"` // YYYY-MM-00 format
	BibStems          []string `json:"bibstem,omitempty"`
	ESources          []string `json:"esources,omitempty"`
}

// FirstTitle returns the primary title, or "" for a record without one.
func (a *Article) FirstTitle() string {
	if len(a.Title) == 0 {
		return ""
	}
	return a.Title[0]
}

// IsArXiv reports whether the record is an arXiv e-print (no published
// version yet). ADS encodes this in the bibcode's bibstem.
func (a *Article) IsArXiv() bool {
	return strings.Contains(strings.ToLower(a.Bibcode), "arxiv")
}

// HasESource reports whether the given electronic-source kind (e.g.
// "PUB_PDF", "EPRINT_HTML") is declared available for this record.
func (a *Article) HasESource(kind string) bool {
	kind = strings.ToUpper(kind)
	for _, s := range a.ESources {
		if strings.ToUpper(s) == kind {
			return true
		}
	}
	return false
}

// AllIdentifiers returns the bibcode, alternate bibcodes and every other
// identifier (arXiv id, DOI) known for the record, deduplicated.
func (a *Article) AllIdentifiers() []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	add(a.Bibcode)
	for _, id := range a.AlternateBibcodes {
		add(id)
	}
	for _, id := range a.Identifiers {
		add(id)
	}
	return ids
}
