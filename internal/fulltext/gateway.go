// Package fulltext retrieves article PDFs through the ADS link gateway.
package fulltext

import "strings"

// DefaultGatewayURL is the ADS link-gateway base URL.
const DefaultGatewayURL = "https://ui.adsabs.harvard.edu/link_gateway"

// Electronic-source kinds in the order they are tried for PDF retrieval.
// pub_html is scraped for a PDF link rather than fetched directly.
const (
	PubPDF    = "pub_pdf"
	PubHTML   = "pub_html"
	EPrintPDF = "eprint_pdf"
	ADSPDF    = "ads_pdf"
	AuthorPDF = "author_pdf"

	// EPrintHTML is not a PDF source but its gateway URL is attached as a
	// linked URL for arXiv records.
	EPrintHTML = "eprint_html"
)

// SourceOrder is the preference order for PDF retrieval attempts.
var SourceOrder = []string{PubPDF, PubHTML, EPrintPDF, ADSPDF, AuthorPDF}

// ESourceLink builds the gateway URL for one electronic source of a record.
// ADS serves esources at <gateway>/<bibcode>/<KIND>, e.g.
// https://ui.adsabs.harvard.edu/link_gateway/1998ApJ...500..525S/PUB_PDF.
// Not every advertised link resolves; callers must verify the payload.
func ESourceLink(gatewayURL, bibcode, kind string) string {
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	return gatewayURL + "/" + bibcode + "/" + strings.ToUpper(kind)
}

// isPublisherSource reports whether the kind is served by the publisher,
// which is where an institutional SSH proxy can help.
func isPublisherSource(kind string) bool {
	return strings.HasPrefix(kind, "pub")
}
