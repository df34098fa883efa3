package bibdesk

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"
)

// scriptRunner executes AppleScript source and returns the printed result
// with the trailing newline trimmed. Tests substitute a fake runner.
type scriptRunner interface {
	Run(script string) (string, error)
}

// osascriptRunner runs scripts through the system osascript binary.
type osascriptRunner struct{}

func (osascriptRunner) Run(script string) (string, error) {
	cmd := exec.Command("osascript", "-")
	cmd.Stdin = strings.NewReader(script)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("osascript: %s", msg)
	}

	return strings.TrimSuffix(stdout.String(), "\n"), nil
}
