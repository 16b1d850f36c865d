package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ardanlabs/dapp/business/core/session"
)

func TestTerminalConfirm(t *testing.T) {
	type table struct {
		name  string
		input string
		yes   bool
		exp   bool
	}

	tt := []table{
		{name: "yes", input: "y\n", exp: true},
		{name: "yes-word", input: " YES \n", exp: true},
		{name: "no", input: "n\n", exp: false},
		{name: "empty", input: "\n", exp: false},
		{name: "eof", input: "", exp: false},
		{name: "assume-yes", input: "", yes: true, exp: true},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			var out bytes.Buffer
			term := newTerminal(&out, strings.NewReader(tst.input), tst.yes)

			if got := term.Confirm(context.Background(), "Transfer?"); got != tst.exp {
				t.Fatalf("Should answer %t, got %t", tst.exp, got)
			}

			if !strings.HasPrefix(out.String(), "Transfer? [y/N]: ") {
				t.Fatalf("Should print the question: %q", out.String())
			}
		})
	}
}

func TestTerminalRender(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(&out, strings.NewReader(""), false)

	term.SetStatus("Contract library loaded successfully!")
	term.SetStatus("Contract library loaded successfully!")
	term.SetWarning("hidden", false)
	term.Render(session.Binding{session.FieldCurrentValue: "42"})
	term.SetEnabled(session.ButtonStore, true)
	term.SetEnabled(session.ButtonTransfer, false)
	term.RenderEvents([]session.EventRow{{Text: "No recent events found.", Placeholder: true}})
	term.printBinding()

	got := out.String()

	if strings.Count(got, "status: Contract library loaded successfully!") != 1 {
		t.Fatalf("Should print a repeated status once: %q", got)
	}

	if strings.Contains(got, "hidden") {
		t.Fatalf("Should not print a hidden warning: %q", got)
	}

	if !strings.Contains(got, "No recent events found.") {
		t.Fatalf("Should print the placeholder row: %q", got)
	}

	if !strings.Contains(got, "42") || !strings.Contains(got, "actions:           store") {
		t.Fatalf("Should print the binding and actions: %q", got)
	}
}
