// Package display provides a thread safe display surface the session
// controller renders to. Every change is published so remote clients can
// follow along.
package display

import (
	"context"
	"sync"

	"github.com/ardanlabs/dapp/business/core/session"
)

// Set of update kinds published by the surface.
const (
	KindBinding = "binding"
	KindStatus  = "status"
	KindAlert   = "alert"
	KindWarning = "warning"
	KindButton  = "button"
	KindInput   = "input"
	KindEvents  = "events"
	KindConfirm = "confirm"
	KindReload  = "reload"
)

// maxAlerts is the number of alerts kept for late readers.
const maxAlerts = 20

// Publisher represents the behavior required to fan out updates.
type Publisher interface {
	Publish(kind string, payload any) error
}

// EventHandler defines a function that is called when events
// occur in the surface.
type EventHandler func(v string, args ...any)

// State is a copy of everything currently shown on the surface.
type State struct {
	Binding        session.Binding    `json:"binding"`
	Status         string             `json:"status"`
	Warning        string             `json:"warning,omitempty"`
	WarningVisible bool               `json:"warning_visible"`
	Buttons        map[string]bool    `json:"buttons"`
	Inputs         map[string]string  `json:"inputs"`
	Alerts         []string           `json:"alerts"`
	Events         []session.EventRow `json:"events"`
}

// Surface implements the session view over in-memory state.
type Surface struct {
	pub       Publisher
	evHandler EventHandler

	mu             sync.RWMutex
	binding        session.Binding
	status         string
	warning        string
	warningVisible bool
	buttons        map[string]bool
	inputs         map[string]string
	alerts         []string
	rows           []session.EventRow
	onReload       func()
}

// New constructs a surface that publishes changes to the specified
// publisher. The publisher can be nil.
func New(pub Publisher, evHandler EventHandler) *Surface {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	return &Surface{
		pub:       pub,
		evHandler: ev,
		binding:   session.Binding{},
		buttons:   make(map[string]bool),
		inputs:    make(map[string]string),
	}
}

// OnReload registers the function executed when the controller asks for a
// full reload.
func (s *Surface) OnReload(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onReload = fn
}

// State returns a copy of the surface.
func (s *Surface) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buttons := make(map[string]bool, len(s.buttons))
	for k, v := range s.buttons {
		buttons[k] = v
	}

	inputs := make(map[string]string, len(s.inputs))
	for k, v := range s.inputs {
		inputs[k] = v
	}

	return State{
		Binding:        s.binding.Copy(),
		Status:         s.status,
		Warning:        s.warning,
		WarningVisible: s.warningVisible,
		Buttons:        buttons,
		Inputs:         inputs,
		Alerts:         append([]string{}, s.alerts...),
		Events:         append([]session.EventRow{}, s.rows...),
	}
}

// SetInput records what the user typed into an input.
func (s *Surface) SetInput(input string, value string) {
	s.mu.Lock()
	s.inputs[input] = value
	s.mu.Unlock()

	s.publish(KindInput, map[string]string{"input": input, "value": value})
}

// =============================================================================

// Render replaces the displayed binding.
func (s *Surface) Render(b session.Binding) {
	s.mu.Lock()
	s.binding = b.Copy()
	s.mu.Unlock()

	s.publish(KindBinding, b)
}

// SetStatus replaces the status line.
func (s *Surface) SetStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	s.mu.Unlock()

	s.publish(KindStatus, msg)
}

// Alert records a message for the user.
func (s *Surface) Alert(msg string) {
	s.mu.Lock()
	s.alerts = append(s.alerts, msg)
	if len(s.alerts) > maxAlerts {
		s.alerts = s.alerts[len(s.alerts)-maxAlerts:]
	}
	s.mu.Unlock()

	s.publish(KindAlert, msg)
}

// SetWarning shows or hides the network warning banner.
func (s *Surface) SetWarning(msg string, visible bool) {
	s.mu.Lock()
	s.warning = msg
	s.warningVisible = visible
	s.mu.Unlock()

	s.publish(KindWarning, map[string]any{"message": msg, "visible": visible})
}

// SetEnabled changes the availability of a button.
func (s *Surface) SetEnabled(button string, enabled bool) {
	s.mu.Lock()
	changed := s.buttons[button] != enabled
	s.buttons[button] = enabled
	s.mu.Unlock()

	if changed {
		s.publish(KindButton, map[string]any{"button": button, "enabled": enabled})
	}
}

// Confirm answers with the decision carried by the context. Without one the
// action is declined.
func (s *Surface) Confirm(ctx context.Context, msg string) bool {
	ok := Confirmed(ctx)
	s.publish(KindConfirm, map[string]any{"message": msg, "confirmed": ok})

	return ok
}

// ClearInput empties an input.
func (s *Surface) ClearInput(input string) {
	s.mu.Lock()
	s.inputs[input] = ""
	s.mu.Unlock()

	s.publish(KindInput, map[string]string{"input": input, "value": ""})
}

// RenderEvents replaces the recent events list.
func (s *Surface) RenderEvents(rows []session.EventRow) {
	s.mu.Lock()
	s.rows = append([]session.EventRow{}, rows...)
	s.mu.Unlock()

	s.publish(KindEvents, rows)
}

// Reload clears the transient parts of the surface and runs the registered
// reload function.
func (s *Surface) Reload() {
	s.mu.Lock()
	fn := s.onReload
	{
		s.alerts = nil
		s.rows = nil
		s.inputs = make(map[string]string)
	}
	s.mu.Unlock()

	s.publish(KindReload, nil)

	if fn != nil {
		fn()
	}
}

// =============================================================================

func (s *Surface) publish(kind string, payload any) {
	if s.pub == nil {
		return
	}

	if err := s.pub.Publish(kind, payload); err != nil {
		s.evHandler("display: publish: kind[%s]: ERROR: %s", kind, err)
	}
}
