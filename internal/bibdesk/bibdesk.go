// Package bibdesk is a typed adapter over BibDesk's AppleScript interface.
// Every operation addresses the first open document, or a single
// publication within it by id. Calls are fire-and-confirm: there are no
// transactional guarantees beyond what BibDesk itself provides.
package bibdesk

import (
	"fmt"
	"strings"
)

// Client drives the running BibDesk application. The publication titles
// and ids of the open document are cached and must be refreshed after any
// mutation that adds or removes publications.
type Client struct {
	run     scriptRunner
	titles  []string
	ids     []string
	adsurls []string
}

// New connects to BibDesk, creating a blank document if none is open.
func New() (*Client, error) {
	c := &Client{run: osascriptRunner{}}
	if err := c.Refresh(); err != nil {
		return nil, err
	}
	return c, nil
}

// newWithRunner builds a client on a substitute runner (for tests).
func newWithRunner(r scriptRunner) *Client {
	return &Client{run: r}
}

func (c *Client) scalar(cmd command) (string, error) {
	return c.run.Run(cmd.source())
}

func (c *Client) list(cmd command) ([]string, error) {
	cmd.wantList = true
	raw, err := c.run.Run(cmd.source())
	if err != nil {
		return nil, err
	}
	return splitList(raw), nil
}

// Refresh re-reads the cached publication listing, creating a blank
// document first if BibDesk has none open.
func (c *Client) Refresh() error {
	if _, err := c.run.Run("return name of first document of application \"BibDesk\"\n"); err != nil {
		if _, err := c.run.Run("tell application \"BibDesk\" to make new document\n"); err != nil {
			return fmt.Errorf("opening BibDesk document: %w", err)
		}
	}

	titles, err := c.list(command{body: "title of publications"})
	if err != nil {
		return fmt.Errorf("listing titles: %w", err)
	}
	ids, err := c.list(command{body: "id of publications"})
	if err != nil {
		return fmt.Errorf("listing ids: %w", err)
	}
	if len(titles) != len(ids) {
		return fmt.Errorf("document listing mismatch: %d titles, %d ids", len(titles), len(ids))
	}
	adsurls, err := c.list(command{body: `value of field "Adsurl" of publications`})
	if err != nil {
		return fmt.Errorf("listing ADS URLs: %w", err)
	}
	c.titles = titles
	c.ids = ids
	c.adsurls = adsurls
	return nil
}

// Titles returns the cached publication titles of the open document.
func (c *Client) Titles() []string {
	return c.titles
}

// IDs returns the cached publication ids, aligned with Titles.
func (c *Client) IDs() []string {
	return c.ids
}

// ADSURLs returns the cached Adsurl field values, aligned with IDs.
// Entries without the field report an empty string.
func (c *Client) ADSURLs() []string {
	return c.adsurls
}

// PIDsForTitle returns the ids of every cached publication with the title.
func (c *Client) PIDsForTitle(title string) []string {
	var pids []string
	for i, t := range c.titles {
		if t == title {
			pids = append(pids, c.ids[i])
		}
	}
	return pids
}

// Authors returns the author names of a publication, in order.
func (c *Client) Authors(pid string) ([]string, error) {
	return c.list(command{body: "name of authors", pid: pid})
}

// Abstract returns a publication's abstract field.
func (c *Client) Abstract(pid string) (string, error) {
	return c.scalar(command{body: "abstract", pid: pid})
}

// SetAbstract sets a publication's abstract. Braces are stripped because
// BibDesk treats them as TeX grouping and they frequently arrive unbalanced
// in ADS abstracts.
func (c *Client) SetAbstract(pid, abstract string) error {
	abstract = strings.ReplaceAll(abstract, "{", " ")
	abstract = strings.ReplaceAll(abstract, "}", " ")
	_, err := c.scalar(command{body: "set abstract to " + quote(abstract), pid: pid})
	return err
}

// Note returns a publication's free-text note.
func (c *Client) Note(pid string) (string, error) {
	return c.scalar(command{body: "return its note", pid: pid})
}

// SetNote sets a publication's free-text note.
func (c *Client) SetNote(pid, note string) error {
	_, err := c.scalar(command{body: "set its note to " + quote(note), pid: pid})
	return err
}

// CiteKey returns a publication's citation key.
func (c *Client) CiteKey(pid string) (string, error) {
	return c.scalar(command{body: "cite key", pid: pid})
}

// GenerateCiteKey replaces the citation key with BibDesk's generated one.
func (c *Client) GenerateCiteKey(pid string) error {
	_, err := c.scalar(command{body: "set cite key to generated cite key", pid: pid})
	return err
}

// FieldNames returns the names of every field set on a publication.
func (c *Client) FieldNames(pid string) ([]string, error) {
	return c.list(command{body: "name of fields", pid: pid})
}

// Fields returns a publication's field map. The name and value listings
// are fetched separately and zipped; a length mismatch means the document
// changed underneath us and is reported as an error.
func (c *Client) Fields(pid string) (map[string]string, error) {
	names, err := c.list(command{body: "name of fields", pid: pid})
	if err != nil {
		return nil, err
	}
	values, err := c.list(command{body: "value of fields", pid: pid})
	if err != nil {
		return nil, err
	}
	if len(names) != len(values) {
		return nil, fmt.Errorf("field listing mismatch: %d names, %d values", len(names), len(values))
	}
	fields := make(map[string]string, len(names))
	for i, name := range names {
		fields[name] = values[i]
	}
	return fields, nil
}

// Field returns the value of one named field.
func (c *Client) Field(pid, name string) (string, error) {
	return c.scalar(command{body: "value of field " + quote(name), pid: pid})
}

// SetField sets the value of one named field.
func (c *Client) SetField(pid, name, value string) error {
	_, err := c.scalar(command{
		body: fmt.Sprintf("set value of field %s to %s", quote(name), quote(value)),
		pid:  pid,
	})
	return err
}

// ImportBibTeX imports a BibTeX entry into the document and returns the
// new publication's id. The cached listing is refreshed.
func (c *Client) ImportBibTeX(bibtex string) (string, error) {
	script := fmt.Sprintf(`tell first document of application "BibDesk"
set newPubs to (import from %s)
return id of item 1 of newPubs
end tell
`, quote(bibtex))
	pid, err := c.run.Run(script)
	if err != nil {
		return "", fmt.Errorf("importing BibTeX: %w", err)
	}
	if pid == "" {
		return "", fmt.Errorf("importing BibTeX: no publication created")
	}
	if err := c.Refresh(); err != nil {
		return "", err
	}
	return pid, nil
}

// LinkedFilePaths returns the POSIX paths of a publication's linked files.
func (c *Client) LinkedFilePaths(pid string) ([]string, error) {
	return c.list(command{body: "POSIX path of linked files", pid: pid})
}

// SkimNotes returns the Skim note text of each linked file, aligned with
// LinkedFilePaths.
func (c *Client) SkimNotes(pid string) ([]string, error) {
	return c.list(command{body: "text Skim notes of linked files", pid: pid})
}

// AddLinkedFile links a file to a publication. Prepended files become the
// primary attachment.
func (c *Client) AddLinkedFile(pid, path string, prepend bool) error {
	position := "end"
	if prepend {
		position = "beginning"
	}
	_, err := c.scalar(command{
		body: fmt.Sprintf("add POSIX file %s to %s of linked files", quote(path), position),
		pid:  pid,
	})
	return err
}

// AutoFile moves a publication's linked files into BibDesk's managed
// folder using its auto-file naming scheme.
func (c *Client) AutoFile(pid string) error {
	_, err := c.scalar(command{body: "auto file", pid: pid})
	return err
}

// FieldURLs returns the values of every field whose name ends in "url".
func (c *Client) FieldURLs(pid string) ([]string, error) {
	return c.list(command{body: `value of fields whose name ends with "url"`, pid: pid})
}

// LinkedURLs returns a publication's linked URLs.
func (c *Client) LinkedURLs(pid string) ([]string, error) {
	return c.list(command{body: "linked URLs", pid: pid})
}

// AddLinkedURL appends a linked URL to a publication.
func (c *Client) AddLinkedURL(pid, url string) error {
	_, err := c.scalar(command{
		body: fmt.Sprintf("make new linked URL at end of linked URLs with data %s", quote(url)),
		pid:  pid,
	})
	return err
}

// Groups returns the names of the static groups containing a publication.
func (c *Client) Groups(pid string) ([]string, error) {
	raw, err := c.run.Run(groupsScript(pid))
	if err != nil {
		return nil, err
	}
	return splitList(raw), nil
}

// AddToGroups adds a publication to each named static group.
func (c *Client) AddToGroups(pid string, groups []string) error {
	if len(groups) == 0 {
		return nil
	}
	_, err := c.run.Run(addGroupsScript(pid, groups))
	return err
}

// Delete removes a publication without touching its linked files.
// SafeDelete is the annotation-preserving variant.
func (c *Client) Delete(pid string) error {
	_, err := c.scalar(command{body: "delete", pid: pid})
	return err
}
