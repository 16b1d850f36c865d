package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/ardanlabs/dapp/business/core/session"
)

// terminal renders the session to a line oriented terminal.
type terminal struct {
	mu      sync.Mutex
	out     io.Writer
	in      *bufio.Reader
	yes     bool
	binding session.Binding
	buttons map[string]bool
	last    string
}

func newTerminal(out io.Writer, in io.Reader, yes bool) *terminal {
	return &terminal{
		out:     out,
		in:      bufio.NewReader(in),
		yes:     yes,
		binding: session.Binding{},
		buttons: make(map[string]bool),
	}
}

// Render keeps the binding for printing on demand.
func (t *terminal) Render(b session.Binding) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.binding = b.Copy()
}

// SetStatus prints the status line when it changes.
func (t *terminal) SetStatus(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if msg == "" || msg == t.last {
		return
	}
	t.last = msg

	fmt.Fprintf(t.out, "status: %s\n", msg)
}

// Alert prints the message.
func (t *terminal) Alert(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.out, msg)
}

// SetWarning prints the warning when it is visible.
func (t *terminal) SetWarning(msg string, visible bool) {
	if !visible {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "WARNING: %s\n", msg)
}

// SetEnabled keeps the button state for printing on demand.
func (t *terminal) SetEnabled(button string, enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buttons[button] = enabled
}

// Confirm asks the question on the terminal unless every answer is yes.
func (t *terminal) Confirm(ctx context.Context, msg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.yes {
		fmt.Fprintf(t.out, "%s [y/N]: y\n", msg)
		return true
	}

	fmt.Fprintf(t.out, "%s [y/N]: ", msg)

	answer, err := t.in.ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(t.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}

	return false
}

// ClearInput has nothing to clear on a terminal.
func (t *terminal) ClearInput(input string) {}

// RenderEvents prints one line per event.
func (t *terminal) RenderEvents(rows []session.EventRow) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, row := range rows {
		if row.Placeholder {
			fmt.Fprintln(t.out, row.Text)
			continue
		}
		fmt.Fprintf(t.out, "%-10d %-24s %s\n", row.BlockNumber, row.Text, row.Link)
	}
}

// Reload ends the command since a terminal session cannot start over.
func (t *terminal) Reload() {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintln(t.out, "network changed, run the command again")
}

// printBinding writes the current binding and buttons.
func (t *terminal) printBinding() {
	t.mu.Lock()
	defer t.mu.Unlock()

	fields := []string{
		session.FieldUserAddress,
		session.FieldNetworkInfo,
		session.FieldContractAddress,
		session.FieldCurrentValue,
		session.FieldContractOwner,
		session.FieldIsOwner,
	}

	for _, f := range fields {
		fmt.Fprintf(t.out, "%-18s %s\n", f+":", t.binding[f])
	}

	buttons := make([]string, 0, len(t.buttons))
	for b, enabled := range t.buttons {
		if enabled {
			buttons = append(buttons, strings.TrimSuffix(b, "-btn"))
		}
	}
	sort.Strings(buttons)

	fmt.Fprintf(t.out, "%-18s %s\n", "actions:", strings.Join(buttons, ", "))
}
