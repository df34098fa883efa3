// Package notify posts desktop notifications through Notification Center.
package notify

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// DefaultSound is the alert sound used when sounds are enabled.
const DefaultSound = "Frog"

// Notifier posts fire-and-forget desktop alerts via osascript. Failures
// are logged at debug level and otherwise ignored: a missed notification
// must never abort a sync.
type Notifier struct {
	sound string // empty for silent notifications
	log   *slog.Logger
}

// New creates a Notifier. withSound selects an audible alert.
func New(withSound bool, log *slog.Logger) *Notifier {
	n := &Notifier{log: log}
	if withSound {
		n.sound = DefaultSound
	}
	if n.log == nil {
		n.log = slog.Default()
	}
	return n
}

// Notify posts one notification.
func (n *Notifier) Notify(title, subtitle, body string) {
	script := fmt.Sprintf("display notification %s with title %s subtitle %s",
		quote(body), quote(title), quote(subtitle))
	if n.sound != "" {
		script += " sound name " + quote(n.sound)
	}

	if err := exec.Command("osascript", "-e", script).Run(); err != nil {
		n.log.Debug("notification failed", "title", title, "error", err)
	}
}

// quote returns s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
