package fulltext

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// pdfLinkFromHTML guesses the PDF URL behind a publisher article page.
// The <meta name="citation_pdf_url"> tag is authoritative when present;
// otherwise a couple of publisher-specific URL rewrites are tried, and the
// fallback is the page URL with a .pdf suffix.
func pdfLinkFromHTML(pageURL string, body io.Reader) string {
	if meta := findCitationPDFURL(body); meta != "" {
		return meta
	}

	if strings.Contains(pageURL, "annualreviews.org") {
		return strings.Replace(pageURL, "/doi/", "/doi/pdf/", 1)
	}
	if strings.Contains(pageURL, "link.springer.com") {
		replaced := strings.Replace(pageURL, "book", "content/pdf", 1)
		replaced = strings.Replace(replaced, "article", "content/pdf", 1)
		return replaced + ".pdf"
	}

	return pageURL + ".pdf"
}

// findCitationPDFURL scans an HTML document for the citation_pdf_url meta tag.
func findCitationPDFURL(body io.Reader) string {
	tokenizer := html.NewTokenizer(body)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "meta" {
				continue
			}
			var name, content string
			for _, attr := range token.Attr {
				switch attr.Key {
				case "name":
					name = attr.Val
				case "content":
					content = attr.Val
				}
			}
			if name == "citation_pdf_url" && content != "" {
				return content
			}
		}
	}
}
