package display_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ardanlabs/dapp/business/core/session"
	"github.com/ardanlabs/dapp/business/sys/display"
	"github.com/ardanlabs/dapp/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func next(t *testing.T, ch <-chan []byte) events.Message {
	t.Helper()

	select {
	case data := <-ch:
		var msg events.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decoding message: %s", err)
		}
		return msg

	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}

	return events.Message{}
}

func TestSurface(t *testing.T) {
	evts := events.New()
	defer evts.Shutdown()

	ch := evts.Acquire("test")
	s := display.New(evts, nil)

	t.Log("Given the need to render session updates.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen rendering a binding.", testID)
		{
			s.Render(session.Binding{session.FieldCurrentValue: "42"})

			msg := next(t, ch)
			if msg.Kind != display.KindBinding {
				t.Fatalf("\t%s\tTest %d:\tShould publish a binding update: %s", failed, testID, msg.Kind)
			}
			t.Logf("\t%s\tTest %d:\tShould publish a binding update.", success, testID)

			if got := s.State().Binding[session.FieldCurrentValue]; got != "42" {
				t.Fatalf("\t%s\tTest %d:\tShould keep the binding: %q", failed, testID, got)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the binding.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen toggling a button.", testID)
		{
			s.SetEnabled(session.ButtonStore, true)
			next(t, ch)

			s.SetEnabled(session.ButtonStore, true)
			select {
			case <-ch:
				t.Fatalf("\t%s\tTest %d:\tShould not publish an unchanged button.", failed, testID)
			default:
			}
			t.Logf("\t%s\tTest %d:\tShould not publish an unchanged button.", success, testID)

			if !s.State().Buttons[session.ButtonStore] {
				t.Fatalf("\t%s\tTest %d:\tShould enable the button.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould enable the button.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen asking for confirmation.", testID)
		{
			if s.Confirm(context.Background(), "sure?") {
				t.Fatalf("\t%s\tTest %d:\tShould decline without an answer.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould decline without an answer.", success, testID)

			ctx := display.WithConfirmation(context.Background(), true)
			if !s.Confirm(ctx, "sure?") {
				t.Fatalf("\t%s\tTest %d:\tShould accept with an answer.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould accept with an answer.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen reloading.", testID)
		{
			var reloaded bool
			s.OnReload(func() { reloaded = true })

			s.SetInput(session.InputValue, "12")
			s.Alert("hello")
			s.Reload()

			if !reloaded {
				t.Fatalf("\t%s\tTest %d:\tShould run the reload function.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould run the reload function.", success, testID)

			state := s.State()
			if len(state.Alerts) != 0 || state.Inputs[session.InputValue] != "" {
				t.Fatalf("\t%s\tTest %d:\tShould clear transient state: %+v", failed, testID, state)
			}
			t.Logf("\t%s\tTest %d:\tShould clear transient state.", success, testID)
		}
	}
}

func TestAlertLimit(t *testing.T) {
	s := display.New(nil, nil)

	for i := 0; i < 50; i++ {
		s.Alert("alert")
	}

	if n := len(s.State().Alerts); n != 20 {
		t.Fatalf("Should keep only the latest 20 alerts, got %d", n)
	}
}
