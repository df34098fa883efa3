// Package reconcile decides whether a freshly fetched ADS record
// duplicates existing BibDesk entries and merges them into a single
// up-to-date publication, carrying every piece of user-added state
// (groups, fields, notes, annotated PDFs) across the replacement.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/astrobib/ads2bibdesk/internal/ads"
	"github.com/astrobib/ads2bibdesk/internal/fulltext"
)

// Title similarity cutoff and the author/abstract ratios gating a fuzzy
// duplicate. Abstract comparison is strict >: a boundary score does not
// make a duplicate.
const (
	titleCutoff       = 0.7
	authorThreshold   = 0.6
	abstractThreshold = 0.6

	// maxTitleCandidates bounds the fuzzy-match set per record.
	maxTitleCandidates = 3
)

// ErrNoMatch is returned when ADS has no record for an identifier. The
// local library is left untouched.
var ErrNoMatch = errors.New("no ADS record matched the identifier")

// Library is the slice of the BibDesk adapter the engine drives.
// *bibdesk.Client satisfies it; tests use an in-memory fake.
type Library interface {
	Refresh() error
	Titles() []string
	ADSURLs() []string
	IDs() []string
	PIDsForTitle(title string) []string
	Authors(pid string) ([]string, error)
	Abstract(pid string) (string, error)
	SetAbstract(pid, abstract string) error
	Note(pid string) (string, error)
	SetNote(pid, note string) error
	CiteKey(pid string) (string, error)
	GenerateCiteKey(pid string) error
	FieldNames(pid string) ([]string, error)
	Fields(pid string) (map[string]string, error)
	Field(pid, name string) (string, error)
	SetField(pid, name, value string) error
	ImportBibTeX(bibtex string) (string, error)
	AddLinkedFile(pid, path string, prepend bool) error
	AutoFile(pid string) error
	FieldURLs(pid string) ([]string, error)
	LinkedURLs(pid string) ([]string, error)
	AddLinkedURL(pid, url string) error
	Groups(pid string) ([]string, error)
	AddToGroups(pid string, groups []string) error
	SafeDelete(pid string) ([]string, error)
}

// Metadata is the ADS client surface the engine uses.
type Metadata interface {
	SearchByIdentifier(ctx context.Context, identifier string) ([]ads.Article, error)
	ExportBibTeX(ctx context.Context, bibcode string) (string, error)
}

// FullText resolves a verified PDF for a record, or reports failure.
type FullText interface {
	Fetch(ctx context.Context, bibcode string, esources []string) fulltext.Result
}

// Notifier posts fire-and-forget desktop alerts.
type Notifier interface {
	Notify(title, subtitle, body string)
}

// Engine reconciles one ADS record at a time against the open library.
type Engine struct {
	lib      Library
	meta     Metadata
	fulltext FullText // nil disables PDF retrieval
	notifier Notifier
	log      *slog.Logger

	// mirror is the ADS web frontend host; gatewayURL is its link-gateway
	// base. They back the abstract-page and esource URLs attached to
	// publications.
	gatewayURL string
	mirror     string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFullText enables PDF retrieval through the given resolver.
func WithFullText(ft FullText) EngineOption {
	return func(e *Engine) { e.fulltext = ft }
}

// WithNotifier sets the desktop notifier.
func WithNotifier(n Notifier) EngineOption {
	return func(e *Engine) { e.notifier = n }
}

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// WithMirror sets the ADS web mirror used for gateway and abstract URLs.
func WithMirror(mirror string) EngineOption {
	return func(e *Engine) {
		e.mirror = mirror
		e.gatewayURL = "https://" + mirror + "/link_gateway"
	}
}

// NewEngine creates a reconciliation engine over a library and an ADS client.
func NewEngine(lib Library, meta Metadata, opts ...EngineOption) *Engine {
	e := &Engine{
		lib:        lib,
		meta:       meta,
		log:        slog.Default(),
		mirror:     "ui.adsabs.harvard.edu",
		gatewayURL: fulltext.DefaultGatewayURL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outcome summarizes one completed reconciliation.
type Outcome struct {
	Identifier        string
	Bibcode           string
	CiteKey           string
	Title             string
	DuplicatesRemoved int
	PDFAttached       bool
}

// annotations is the user-added state collected from the duplicate set
// before deletion.
type annotations struct {
	fields map[string]string
	note   string
	groups []string
	pdfs   []string
}

// SyncIdentifier fetches the record for one identifier and reconciles it
// into the library. Zero API matches abort without local mutation; with
// multiple matches the first is used and a warning logged. Any library
// command error aborts the identifier.
func (e *Engine) SyncIdentifier(ctx context.Context, identifier string) (*Outcome, error) {
	articles, err := e.meta.SearchByIdentifier(ctx, identifier)
	if err != nil {
		e.notify("ADS query failed", identifier, err.Error())
		return nil, fmt.Errorf("searching ADS for %s: %w", identifier, err)
	}
	if len(articles) == 0 {
		e.notify("No ADS entry found", identifier, "No update in BibDesk")
		e.log.Info("no ADS entry found", "identifier", identifier)
		return nil, fmt.Errorf("%w: %s", ErrNoMatch, identifier)
	}
	if len(articles) > 1 {
		// First-match policy: ADS result order is taken as-is.
		e.log.Warn("multiple ADS entries, using first", "identifier", identifier, "matches", len(articles))
		e.notify("Multiple ADS entries found", identifier, "Using the first match")
	}
	article := articles[0]
	e.log.Debug("resolved record", "bibcode", article.Bibcode, "title", article.FirstTitle())

	bibtex, err := e.meta.ExportBibTeX(ctx, article.Bibcode)
	if err != nil {
		e.notify("ADS export failed", article.Bibcode, err.Error())
		return nil, fmt.Errorf("exporting BibTeX for %s: %w", article.Bibcode, err)
	}

	pdf := fulltext.Result{}
	if e.fulltext != nil {
		pdf = e.fulltext.Fetch(ctx, article.Bibcode, article.ESources)
	}

	duplicates, err := e.findDuplicates(&article)
	if err != nil {
		return nil, err
	}

	kept, err := e.removeDuplicates(identifier, &article, duplicates)
	if err != nil {
		return nil, err
	}

	outcome, err := e.importRecord(&article, bibtex, pdf, kept)
	if err != nil {
		return nil, err
	}
	outcome.Identifier = identifier
	outcome.DuplicatesRemoved = len(duplicates)

	e.notify("New publication added", outcome.CiteKey, outcome.Title)
	e.log.Info("new publication added", "cite_key", outcome.CiteKey, "title", outcome.Title)
	return outcome, nil
}

// findDuplicates returns the ids of every local entry judged to represent
// the same article: identifier matches unioned with fuzzy title matches
// that also pass the author and abstract gates.
func (e *Engine) findDuplicates(article *ads.Article) ([]string, error) {
	seen := make(map[string]bool)
	var dups []string
	add := func(pid string) {
		if pid != "" && !seen[pid] {
			seen[pid] = true
			dups = append(dups, pid)
		}
	}

	// Identifier match: the entry's canonical ADS URL names the record's
	// bibcode or any alternate identifier.
	identifiers := article.AllIdentifiers()
	ids := e.lib.IDs()
	for i, adsurl := range e.lib.ADSURLs() {
		if adsurl == "" || i >= len(ids) {
			continue
		}
		for _, id := range identifiers {
			if strings.Contains(adsurl, id) {
				add(ids[i])
				break
			}
		}
	}

	// Fuzzy match on title, gated by first-author and abstract similarity.
	for _, title := range ClosestTitles(article.FirstTitle(), e.lib.Titles(), maxTitleCandidates, titleCutoff) {
		for _, pid := range e.lib.PIDsForTitle(title) {
			if seen[pid] {
				continue
			}
			ok, err := e.isFuzzyDuplicate(pid, article)
			if err != nil {
				return nil, err
			}
			if ok {
				add(pid)
			}
		}
	}

	return dups, nil
}

// isFuzzyDuplicate applies the author and abstract gates to a title match.
func (e *Engine) isFuzzyDuplicate(pid string, article *ads.Article) (bool, error) {
	authors, err := e.lib.Authors(pid)
	if err != nil {
		return false, fmt.Errorf("reading authors of %s: %w", pid, err)
	}
	if len(authors) == 0 || len(article.Authors) == 0 {
		return false, nil
	}
	first := article.FirstAuthor
	if first == "" {
		first = article.Authors[0]
	}
	if Ratio(authors[0], first) <= authorThreshold {
		return false, nil
	}

	abstract, err := e.lib.Abstract(pid)
	if err != nil {
		return false, fmt.Errorf("reading abstract of %s: %w", pid, err)
	}
	// A missing local abstract cannot veto; a present one must clear the
	// threshold strictly.
	if abstract != "" && Ratio(abstract, article.Abstract) <= abstractThreshold {
		return false, nil
	}
	return true, nil
}

// removeDuplicates collects the user-added state of every duplicate and
// deletes them. Field maps are unioned last-write-wins, Adscomment is
// dropped (it is an arXiv-only leftover), notes are concatenated, and
// annotated PDFs are preserved by SafeDelete.
func (e *Engine) removeDuplicates(identifier string, article *ads.Article, pids []string) (*annotations, error) {
	kept := &annotations{fields: make(map[string]string)}

	for _, pid := range pids {
		groups, err := e.lib.Groups(pid)
		if err != nil {
			return nil, fmt.Errorf("reading groups of %s: %w", pid, err)
		}
		kept.groups = unionStrings(kept.groups, groups)

		fields, err := e.lib.Fields(pid)
		if err != nil {
			return nil, fmt.Errorf("reading fields of %s: %w", pid, err)
		}
		for k, v := range fields {
			if k == "Adscomment" {
				continue
			}
			kept.fields[k] = v
		}

		note, err := e.lib.Note(pid)
		if err != nil {
			return nil, fmt.Errorf("reading note of %s: %w", pid, err)
		}
		if note != "" {
			if kept.note != "" {
				kept.note += "\n\n"
			}
			kept.note += note
		}

		citeKey, _ := e.lib.CiteKey(pid)
		pdfs, err := e.lib.SafeDelete(pid)
		if err != nil {
			return nil, fmt.Errorf("deleting duplicate %s: %w", pid, err)
		}
		kept.pdfs = append(kept.pdfs, pdfs...)

		e.notify("Duplicate publication removed", citeKey, article.FirstTitle())
		e.log.Info("duplicate publication removed", "identifier", identifier, "cite_key", citeKey)
	}

	return kept, nil
}

// importRecord imports the fresh BibTeX, attaches files and URLs, and
// restores the collected annotations.
func (e *Engine) importRecord(article *ads.Article, bibtex string, pdf fulltext.Result, kept *annotations) (*Outcome, error) {
	pid, err := e.lib.ImportBibTeX(bibtex)
	if err != nil {
		return nil, err
	}

	if err := e.lib.GenerateCiteKey(pid); err != nil {
		return nil, fmt.Errorf("generating cite key: %w", err)
	}
	if article.Abstract != "" {
		if err := e.lib.SetAbstract(pid, article.Abstract); err != nil {
			return nil, fmt.Errorf("setting abstract: %w", err)
		}
	}

	doi, err := e.lib.Field(pid, "Doi")
	if err != nil {
		return nil, fmt.Errorf("reading doi: %w", err)
	}

	if pdf.OK {
		if err := e.lib.AddLinkedFile(pid, pdf.Path, true); err != nil {
			return nil, fmt.Errorf("attaching PDF: %w", err)
		}
		if err := e.lib.AutoFile(pid); err != nil {
			return nil, fmt.Errorf("auto-filing PDF: %w", err)
		}
	} else if doi == "" {
		// Without a PDF or a DOI link, keep at least a pointer to the
		// article's abstract page.
		if err := e.lib.AddLinkedURL(pid, e.absPageURL(article.Bibcode)); err != nil {
			return nil, fmt.Errorf("attaching source URL: %w", err)
		}
	}

	if err := e.restoreURLs(pid, article); err != nil {
		return nil, err
	}

	for _, f := range kept.pdfs {
		if err := e.lib.AddLinkedFile(pid, f, false); err != nil {
			return nil, fmt.Errorf("re-attaching preserved PDF: %w", err)
		}
	}

	if kept.note != "" {
		if err := e.lib.SetNote(pid, kept.note); err != nil {
			return nil, fmt.Errorf("restoring note: %w", err)
		}
	}

	if err := e.restoreFields(pid, kept.fields); err != nil {
		return nil, err
	}

	if len(kept.groups) > 0 {
		if err := e.lib.AddToGroups(pid, kept.groups); err != nil {
			return nil, fmt.Errorf("restoring groups: %w", err)
		}
	}

	citeKey, err := e.lib.CiteKey(pid)
	if err != nil {
		return nil, fmt.Errorf("reading cite key: %w", err)
	}

	return &Outcome{
		Bibcode:     article.Bibcode,
		CiteKey:     citeKey,
		Title:       article.FirstTitle(),
		PDFAttached: pdf.OK,
	}, nil
}

// restoreURLs re-attaches every known URL not already linked, including
// the arXiv e-print page when the record declares one.
func (e *Engine) restoreURLs(pid string, article *ads.Article) error {
	urls, err := e.lib.FieldURLs(pid)
	if err != nil {
		return fmt.Errorf("reading URL fields: %w", err)
	}
	if article.HasESource(fulltext.EPrintHTML) {
		urls = append(urls, fulltext.ESourceLink(e.gatewayURL, article.Bibcode, fulltext.EPrintHTML))
	}

	linked, err := e.lib.LinkedURLs(pid)
	if err != nil {
		return fmt.Errorf("reading linked URLs: %w", err)
	}
	present := make(map[string]bool, len(linked))
	for _, u := range linked {
		present[u] = true
	}

	for _, u := range urls {
		if u == "" || present[u] {
			continue
		}
		if err := e.lib.AddLinkedURL(pid, u); err != nil {
			return fmt.Errorf("attaching URL %s: %w", u, err)
		}
		present[u] = true
	}
	return nil
}

// restoreFields writes back preserved fields whose keys the fresh import
// did not populate.
func (e *Engine) restoreFields(pid string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	names, err := e.lib.FieldNames(pid)
	if err != nil {
		return fmt.Errorf("reading field names: %w", err)
	}
	existing := make(map[string]bool, len(names))
	for _, n := range names {
		existing[n] = true
	}
	for k, v := range fields {
		if existing[k] {
			continue
		}
		if err := e.lib.SetField(pid, k, v); err != nil {
			return fmt.Errorf("restoring field %s: %w", k, err)
		}
	}
	return nil
}

// absPageURL returns the ADS abstract page for a bibcode on the configured
// mirror.
func (e *Engine) absPageURL(bibcode string) string {
	return "https://" + e.mirror + "/abs/" + bibcode
}

func (e *Engine) notify(title, subtitle, body string) {
	if e.notifier != nil {
		e.notifier.Notify(title, subtitle, body)
	}
}

// unionStrings appends the members of add not already in base, keeping order.
func unionStrings(base, add []string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range add {
		if s != "" && !seen[s] {
			seen[s] = true
			base = append(base, s)
		}
	}
	return base
}
