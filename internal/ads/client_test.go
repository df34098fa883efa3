package ads

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchByIdentifier(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/query" {
			t.Errorf("path = %q, want /search/query", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != `identifier:"1998ApJ...500..525S"` {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("fl"); got != SearchFields {
			t.Errorf("fl = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{
				"numFound": 1,
				"docs": []map[string]any{{
					"bibcode":      "1998ApJ...500..525S",
					"title":        []string{"Maps of Dust Infrared Emission"},
					"author":       []string{"Schlegel, David J.", "Finkbeiner, Douglas P."},
					"first_author": "Schlegel, David J.",
					"esources":     []string{"PUB_PDF", "ADS_PDF"},
				}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(WithToken("test-token"), WithBaseURL(server.URL))
	articles, err := client.SearchByIdentifier(context.Background(), "1998ApJ...500..525S")
	if err != nil {
		t.Fatalf("SearchByIdentifier: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("got %d articles, want 1", len(articles))
	}
	a := articles[0]
	if a.Bibcode != "1998ApJ...500..525S" {
		t.Errorf("Bibcode = %q", a.Bibcode)
	}
	if a.FirstTitle() != "Maps of Dust Infrared Emission" {
		t.Errorf("FirstTitle = %q", a.FirstTitle())
	}
	if !a.HasESource("pub_pdf") {
		t.Error("HasESource(pub_pdf) = false")
	}
}

func TestSearchByIdentifierNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{"numFound": 0, "docs": []any{}},
		})
	}))
	defer server.Close()

	client := NewClient(WithToken("t"), WithBaseURL(server.URL))
	articles, err := client.SearchByIdentifier(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("SearchByIdentifier: %v", err)
	}
	if len(articles) != 0 {
		t.Errorf("got %d articles, want 0", len(articles))
	}
}

func TestSearchAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(WithToken("bad"), WithBaseURL(server.URL))
	_, err := client.SearchByIdentifier(context.Background(), "x")
	if !IsAuthError(err) {
		t.Errorf("IsAuthError = false for %v", err)
	}
}

func TestSearchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(WithToken("t"), WithBaseURL(server.URL))
	_, err := client.SearchByIdentifier(context.Background(), "x")
	if !IsRateLimited(err) {
		t.Errorf("IsRateLimited = false for %v", err)
	}
}

func TestExportBibTeX(t *testing.T) {
	const bibtex = "@ARTICLE{1998ApJ...500..525S,\n  title = {...}\n}"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/export/bibtex" {
			t.Errorf("%s %s, want POST /export/bibtex", r.Method, r.URL.Path)
		}
		var req struct {
			Bibcode []string `json:"bibcode"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if len(req.Bibcode) != 1 || req.Bibcode[0] != "1998ApJ...500..525S" {
			t.Errorf("bibcode = %v", req.Bibcode)
		}
		json.NewEncoder(w).Encode(map[string]string{"export": bibtex})
	}))
	defer server.Close()

	client := NewClient(WithToken("t"), WithBaseURL(server.URL))
	got, err := client.ExportBibTeX(context.Background(), "1998ApJ...500..525S")
	if err != nil {
		t.Fatalf("ExportBibTeX: %v", err)
	}
	if got != bibtex {
		t.Errorf("export = %q, want %q", got, bibtex)
	}
}

func TestExportBibTeXEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"export": "  "})
	}))
	defer server.Close()

	client := NewClient(WithToken("t"), WithBaseURL(server.URL))
	_, err := client.ExportBibTeX(context.Background(), "x")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Errorf("err = %v, want ErrInvalidResponse", err)
	}
}

func TestAllIdentifiers(t *testing.T) {
	a := Article{
		Bibcode:           "2019ApJ...871..235P",
		AlternateBibcodes: []string{"2019arXiv190104503P"},
		Identifiers:       []string{"2019ApJ...871..235P", "arXiv:1901.04503", "10.3847/1538-4357/aafd37"},
	}
	got := a.AllIdentifiers()
	want := []string{"2019ApJ...871..235P", "2019arXiv190104503P", "arXiv:1901.04503", "10.3847/1538-4357/aafd37"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("identifier[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsArXiv(t *testing.T) {
	tests := []struct {
		bibcode string
		want    bool
	}{
		{"2019arXiv190404507R", true},
		{"1998ApJ...500..525S", false},
	}
	for _, tt := range tests {
		a := Article{Bibcode: tt.bibcode}
		if got := a.IsArXiv(); got != tt.want {
			t.Errorf("IsArXiv(%s) = %v, want %v", tt.bibcode, got, tt.want)
		}
	}
}
