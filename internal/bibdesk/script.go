package bibdesk

import (
	"fmt"
	"strings"
)

// listSeparator joins AppleScript list results into a single string the
// runner can split unambiguously. Titles and notes may contain commas and
// newlines, so osascript's default comma-joined rendering is unusable;
// the scripts join items with a NUL byte instead.
const listSeparator = "\x00"

// escape quotes a Go string for embedding in AppleScript source.
func escape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// quote returns s as an AppleScript string literal.
func quote(s string) string {
	return `"` + escape(s) + `"`
}

// command is a typed AppleScript request addressed to the first open
// BibDesk document, optionally narrowed to one publication by id.
type command struct {
	body     string // AppleScript statement(s) to run in the tell block
	pid      string // publication id, empty for document-wide commands
	wantList bool   // response is a list of strings rather than a scalar
}

// source renders the full AppleScript program for a command. List results
// are joined with listSeparator so the caller can split them safely.
func (c command) source() string {
	var b strings.Builder
	b.WriteString("tell first document of application \"BibDesk\"\n")
	if c.pid != "" {
		fmt.Fprintf(&b, "tell first publication whose id is %s\n", quote(c.pid))
	}
	if c.wantList {
		fmt.Fprintf(&b, "set theResult to (%s)\n", c.body)
		fmt.Fprintf(&b, "set AppleScript's text item delimiters to (ASCII character 0)\n")
		b.WriteString("set joined to theResult as string\n")
		b.WriteString("set AppleScript's text item delimiters to \"\"\n")
		b.WriteString("return joined\n")
	} else {
		fmt.Fprintf(&b, "%s\n", c.body)
	}
	if c.pid != "" {
		b.WriteString("end tell\n")
	}
	b.WriteString("end tell\n")
	return b.String()
}

// splitList splits a joined list response. An empty response is an empty
// list, not a single empty item.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, listSeparator)
}

// groupsScript returns the AppleScript program listing the static groups
// containing the publication with the given id.
func groupsScript(pid string) string {
	return fmt.Sprintf(`tell first document of application "BibDesk"
set oldPub to (get first publication whose id is %s)
set pGroups to (get static groups whose publications contains oldPub)
set groupNames to {}
repeat with aGroup in pGroups
copy (name of aGroup) to the end of groupNames
end repeat
set AppleScript's text item delimiters to (ASCII character 0)
set joined to groupNames as string
set AppleScript's text item delimiters to ""
return joined
end tell
`, quote(pid))
}

// addGroupsScript returns the AppleScript program adding a publication to
// each named static group.
func addGroupsScript(pid string, groups []string) string {
	quoted := make([]string, len(groups))
	for i, g := range groups {
		quoted[i] = quote(g)
	}
	return fmt.Sprintf(`tell first document of application "BibDesk"
set newPub to (get first publication whose id is %s)
repeat with aGroup in {%s}
set theGroup to get static group aGroup
add newPub to theGroup
end repeat
end tell
`, quote(pid), strings.Join(quoted, ", "))
}
