package fulltext

import (
	"strings"
	"testing"
)

func TestPDFLinkFromHTML(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		body    string
		want    string
	}{
		{
			name:    "citation meta tag wins",
			pageURL: "https://iopscience.iop.org/article/10.3847/1538-4357/aafd37",
			body:    `<html><head><meta name="citation_pdf_url" content="https://iopscience.iop.org/article/10.3847/1538-4357/aafd37/pdf"></head></html>`,
			want:    "https://iopscience.iop.org/article/10.3847/1538-4357/aafd37/pdf",
		},
		{
			name:    "self closing meta tag",
			pageURL: "https://example.org/article/1",
			body:    `<meta name="citation_pdf_url" content="https://example.org/article/1.pdf" />`,
			want:    "https://example.org/article/1.pdf",
		},
		{
			name:    "annual reviews rewrite",
			pageURL: "https://www.annualreviews.org/doi/10.1146/annurev-astro-081817-051839",
			body:    "<html></html>",
			want:    "https://www.annualreviews.org/doi/pdf/10.1146/annurev-astro-081817-051839",
		},
		{
			name:    "springer article rewrite",
			pageURL: "https://link.springer.com/article/10.1007/s00159-019-0116-6",
			body:    "<html></html>",
			want:    "https://link.springer.com/content/pdf/10.1007/s00159-019-0116-6.pdf",
		},
		{
			name:    "fallback appends pdf suffix",
			pageURL: "https://academic.oup.com/mnras/article/490/1/1",
			body:    "<html><head><meta name=\"description\" content=\"an article\"></head></html>",
			want:    "https://academic.oup.com/mnras/article/490/1/1.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pdfLinkFromHTML(tt.pageURL, strings.NewReader(tt.body))
			if got != tt.want {
				t.Errorf("pdfLinkFromHTML = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestESourceLink(t *testing.T) {
	got := ESourceLink("", "1998ApJ...500..525S", PubPDF)
	want := "https://ui.adsabs.harvard.edu/link_gateway/1998ApJ...500..525S/PUB_PDF"
	if got != want {
		t.Errorf("ESourceLink = %q, want %q", got, want)
	}

	got = ESourceLink("https://mirror.example.org/link_gateway", "2019ApJ...871..235P", EPrintHTML)
	want = "https://mirror.example.org/link_gateway/2019ApJ...871..235P/EPRINT_HTML"
	if got != want {
		t.Errorf("ESourceLink = %q, want %q", got, want)
	}
}
