package reconcile

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MonthYear is a point on the MM/YY batch-range grammar.
type MonthYear struct {
	Year  int // four-digit year
	Month int // 1-12
}

// ordinal converts a MonthYear to a comparable month count.
func (m MonthYear) ordinal() int {
	return m.Year*12 + m.Month - 1
}

// monthRangePattern matches "MM/YY-MM/YY".
var monthRangePattern = regexp.MustCompile(`^(\d{2})/(\d{2})-(\d{2})/(\d{2})$`)

// ParseMonthRange parses an inclusive "MM/YY-MM/YY" range. Two-digit years
// are interpreted in the 2000s, matching modern arXiv identifiers.
func ParseMonthRange(s string) (from, to MonthYear, err error) {
	m := monthRangePattern.FindStringSubmatch(s)
	if m == nil {
		return from, to, fmt.Errorf("invalid month range %q (want MM/YY-MM/YY)", s)
	}
	parse := func(mm, yy string) (MonthYear, error) {
		month, _ := strconv.Atoi(mm)
		year, _ := strconv.Atoi(yy)
		if month < 1 || month > 12 {
			return MonthYear{}, fmt.Errorf("invalid month %q in range %q", mm, s)
		}
		return MonthYear{Year: 2000 + year, Month: month}, nil
	}
	if from, err = parse(m[1], m[2]); err != nil {
		return from, to, err
	}
	if to, err = parse(m[3], m[4]); err != nil {
		return from, to, err
	}
	if from.ordinal() > to.ordinal() {
		return from, to, fmt.Errorf("month range %q is reversed", s)
	}
	return from, to, nil
}

// BibcodeFromADSURL extracts the bibcode segment of an ADS abstract URL
// such as https://ui.adsabs.harvard.edu/abs/1998ApJ...500..525S/abstract.
// Returns "" when the URL has no /abs/ segment.
func BibcodeFromADSURL(url string) string {
	const marker = "/abs/"
	idx := strings.Index(url, marker)
	if idx < 0 {
		return ""
	}
	rest := url[idx+len(marker):]
	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

// DuplicateBibcodes scans the library's cached ADS URLs and returns every
// bibcode referenced by more than one entry, in first-seen order.
func DuplicateBibcodes(lib Library) []string {
	counts := make(map[string]int)
	var order []string
	for _, adsurl := range lib.ADSURLs() {
		bibcode := BibcodeFromADSURL(adsurl)
		if bibcode == "" {
			continue
		}
		if counts[bibcode] == 0 {
			order = append(order, bibcode)
		}
		counts[bibcode]++
	}

	var dups []string
	for _, bibcode := range order {
		if counts[bibcode] > 1 {
			dups = append(dups, bibcode)
		}
	}
	return dups
}

// arxivStemPattern extracts the YYMM prefix of an arXiv bibcode such as
// 2019arXiv190404507R.
var arxivStemPattern = regexp.MustCompile(`arXiv(\d{2})(\d{2})`)

// ArxivBibcodes returns the bibcodes of arXiv-only entries, optionally
// restricted to an inclusive month range. These are the candidates for a
// freshness check: a published version may have appeared since import.
func ArxivBibcodes(lib Library, from, to *MonthYear) []string {
	var bibcodes []string
	for _, adsurl := range lib.ADSURLs() {
		bibcode := BibcodeFromADSURL(adsurl)
		if bibcode == "" || !strings.Contains(strings.ToLower(bibcode), "arxiv") {
			continue
		}
		if from != nil && to != nil {
			m := arxivStemPattern.FindStringSubmatch(bibcode)
			if m == nil {
				continue
			}
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			stamp := MonthYear{Year: 2000 + year, Month: month}
			if stamp.ordinal() < from.ordinal() || stamp.ordinal() > to.ordinal() {
				continue
			}
		}
		bibcodes = append(bibcodes, bibcode)
	}
	return bibcodes
}
