package bibdesk

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// fakeRunner records every script and answers through a handler.
type fakeRunner struct {
	scripts []string
	handler func(script string) (string, error)
}

func (r *fakeRunner) Run(script string) (string, error) {
	r.scripts = append(r.scripts, script)
	if r.handler != nil {
		return r.handler(script)
	}
	return "", nil
}

func (r *fakeRunner) ran(substr string) bool {
	for _, s := range r.scripts {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// documentHandler answers the Refresh scripts for a two-entry document.
func documentHandler(script string) (string, error) {
	switch {
	case strings.Contains(script, "name of first document"):
		return "refs.bib", nil
	case strings.Contains(script, "title of publications"):
		return "First Title" + listSeparator + "Second Title", nil
	case strings.Contains(script, "id of publications"):
		return "pub-1" + listSeparator + "pub-2", nil
	case strings.Contains(script, `value of field "Adsurl" of publications`):
		return "https://ui.adsabs.harvard.edu/abs/1998ApJ...500..525S/abstract" + listSeparator, nil
	}
	return "", nil
}

func TestRefreshCachesListing(t *testing.T) {
	runner := &fakeRunner{handler: documentHandler}
	c := newWithRunner(runner)

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if want := []string{"First Title", "Second Title"}; !reflect.DeepEqual(c.Titles(), want) {
		t.Errorf("Titles = %v, want %v", c.Titles(), want)
	}
	if want := []string{"pub-1", "pub-2"}; !reflect.DeepEqual(c.IDs(), want) {
		t.Errorf("IDs = %v, want %v", c.IDs(), want)
	}
	urls := c.ADSURLs()
	if len(urls) != 2 || urls[1] != "" {
		t.Errorf("ADSURLs = %v, want second entry empty", urls)
	}
	if got := c.PIDsForTitle("Second Title"); !reflect.DeepEqual(got, []string{"pub-2"}) {
		t.Errorf("PIDsForTitle = %v", got)
	}
	if got := c.PIDsForTitle("Absent"); got != nil {
		t.Errorf("PIDsForTitle(absent) = %v, want nil", got)
	}
}

func TestRefreshCreatesDocumentWhenNoneOpen(t *testing.T) {
	runner := &fakeRunner{handler: func(script string) (string, error) {
		if strings.Contains(script, "name of first document") {
			return "", errors.New("no document")
		}
		return "", nil
	}}
	c := newWithRunner(runner)

	if err := c.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if !runner.ran("make new document") {
		t.Error("no document created")
	}
}

func TestRefreshListingMismatch(t *testing.T) {
	runner := &fakeRunner{handler: func(script string) (string, error) {
		switch {
		case strings.Contains(script, "title of publications"):
			return "only one", nil
		case strings.Contains(script, "id of publications"):
			return "pub-1" + listSeparator + "pub-2", nil
		}
		return "", nil
	}}
	c := newWithRunner(runner)

	if err := c.Refresh(); err == nil {
		t.Error("Refresh accepted mismatched title and id listings")
	}
}

func TestFields(t *testing.T) {
	runner := &fakeRunner{handler: func(script string) (string, error) {
		switch {
		case strings.Contains(script, "name of fields"):
			return "Author" + listSeparator + "Adsurl", nil
		case strings.Contains(script, "value of fields"):
			return "Schlegel" + listSeparator + "https://example.org", nil
		}
		return "", nil
	}}
	c := newWithRunner(runner)

	fields, err := c.Fields("pub-1")
	if err != nil {
		t.Fatalf("Fields: %v", err)
	}
	want := map[string]string{"Author": "Schlegel", "Adsurl": "https://example.org"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("Fields = %v, want %v", fields, want)
	}
}

func TestFieldsMismatch(t *testing.T) {
	runner := &fakeRunner{handler: func(script string) (string, error) {
		switch {
		case strings.Contains(script, "name of fields"):
			return "Author" + listSeparator + "Adsurl", nil
		case strings.Contains(script, "value of fields"):
			return "Schlegel", nil
		}
		return "", nil
	}}
	c := newWithRunner(runner)

	if _, err := c.Fields("pub-1"); err == nil {
		t.Error("Fields accepted mismatched name and value listings")
	}
}

func TestImportBibTeX(t *testing.T) {
	runner := &fakeRunner{handler: func(script string) (string, error) {
		if strings.Contains(script, "import from") {
			return "pub-42", nil
		}
		return documentHandler(script)
	}}
	c := newWithRunner(runner)

	pid, err := c.ImportBibTeX("@ARTICLE{Schlegel1998,\n}")
	if err != nil {
		t.Fatalf("ImportBibTeX: %v", err)
	}
	if pid != "pub-42" {
		t.Errorf("pid = %q, want pub-42", pid)
	}
	// The cached listing is refreshed after an import.
	if len(c.Titles()) != 2 {
		t.Errorf("listing not refreshed: %v", c.Titles())
	}
}

func TestImportBibTeXEmptyResult(t *testing.T) {
	runner := &fakeRunner{}
	c := newWithRunner(runner)

	if _, err := c.ImportBibTeX("@ARTICLE{x,\n}"); err == nil {
		t.Error("ImportBibTeX accepted an empty publication id")
	}
}

func TestSetAbstractStripsBraces(t *testing.T) {
	runner := &fakeRunner{}
	c := newWithRunner(runner)

	if err := c.SetAbstract("pub-1", "the {O} {VI} doublet"); err != nil {
		t.Fatalf("SetAbstract: %v", err)
	}
	script := runner.scripts[len(runner.scripts)-1]
	if strings.ContainsAny(script[strings.Index(script, "set abstract"):], "{}") {
		t.Errorf("braces not stripped:\n%s", script)
	}
}

func TestAddLinkedFilePosition(t *testing.T) {
	runner := &fakeRunner{}
	c := newWithRunner(runner)

	if err := c.AddLinkedFile("pub-1", "/papers/a.pdf", true); err != nil {
		t.Fatal(err)
	}
	if !runner.ran("beginning of linked files") {
		t.Error("prepend did not target beginning of linked files")
	}

	if err := c.AddLinkedFile("pub-1", "/papers/b.pdf", false); err != nil {
		t.Fatal(err)
	}
	if !runner.ran("end of linked files") {
		t.Error("append did not target end of linked files")
	}
}

func TestAddToGroupsEmptyIsNoop(t *testing.T) {
	runner := &fakeRunner{}
	c := newWithRunner(runner)

	if err := c.AddToGroups("pub-1", nil); err != nil {
		t.Fatal(err)
	}
	if len(runner.scripts) != 0 {
		t.Errorf("scripts run for empty group list: %v", runner.scripts)
	}
}
