package widgets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qmuntal/stateless"
)

type State string

const (
	StateAbsent          State = "absent"
	StateVisible         State = "visible"
	StateHiddenByMessage State = "hidden_by_message"
	StateHiddenByControl State = "hidden_by_control"
	StateDismissed       State = "dismissed"
)

type trigger string

const (
	triggerShow    trigger = "show"
	triggerMessage trigger = "message"
	triggerDismiss trigger = "dismiss"
	triggerClose   trigger = "close"
	triggerOpen    trigger = "open"
)

var (
	ErrMissingAttribute    = errors.New("missing required attribute")
	ErrAlreadyBootstrapped = errors.New("widget already bootstrapped")
	ErrNotMounted          = errors.New("widget not mounted")
	ErrDismissed           = errors.New("widget dismissed")
)

// Attrs are the loader script's data-* attributes, keyed without the prefix.
type Attrs map[string]string

// Content is the item a content-bearing widget displays.
type Content struct {
	ID string
}

// Session tracks one widget instance on one host page. It is the server-side
// model of what the rendered loader script does in the browser: the state
// endpoint runs Bootstrap, while Receive, Open and Close mirror the loader's
// message listener and control object, whose branches render_test.go checks
// in the emitted script.
type Session struct {
	spec         Spec
	embed        OriginPolicy
	dismissals   DismissalStore
	bootstrapped bool
	org          string
	contentID    string
	machine      *stateless.StateMachine
}

// NewSession creates an absent widget whose iframe is served from
// embedOrigin. Only messages from that origin are accepted.
func NewSession(kind Kind, embedOrigin string, dismissals DismissalStore) (*Session, error) {
	spec, err := Lookup(kind)
	if err != nil {
		return nil, err
	}
	if dismissals == nil {
		dismissals = StaticDismissal("")
	}

	s := &Session{
		spec:       spec,
		embed:      NewOriginPolicy([]string{embedOrigin}),
		dismissals: dismissals,
		machine:    stateless.NewStateMachine(StateAbsent),
	}

	s.machine.Configure(StateAbsent).
		Permit(triggerShow, StateVisible)

	s.machine.Configure(StateVisible).
		Permit(triggerMessage, StateHiddenByMessage).
		Permit(triggerDismiss, StateDismissed).
		Permit(triggerClose, StateHiddenByControl).
		Ignore(triggerOpen)

	s.machine.Configure(StateHiddenByMessage).
		OnEntryFrom(triggerMessage, s.remember).
		Permit(triggerOpen, StateVisible).
		Ignore(triggerClose)

	s.machine.Configure(StateHiddenByControl).
		Permit(triggerOpen, StateVisible).
		Ignore(triggerClose)

	s.machine.Configure(StateDismissed).
		OnEntryFrom(triggerDismiss, s.remember)

	return s, nil
}

func (s *Session) remember(_ context.Context, _ ...any) error {
	if s.spec.Persistence != PersistNone && s.contentID != "" {
		s.dismissals.Dismiss(s.org, s.contentID)
	}
	return nil
}

func (s *Session) Spec() Spec { return s.spec }

func (s *Session) State() State {
	return s.machine.MustState().(State)
}

// Bootstrap mounts the widget. Content-bearing kinds stay absent when
// content is nil or was already dismissed for this organization.
func (s *Session) Bootstrap(attrs Attrs, content *Content) error {
	if s.bootstrapped {
		return ErrAlreadyBootstrapped
	}
	for _, name := range s.spec.Required {
		if strings.TrimSpace(attrs[name]) == "" {
			return fmt.Errorf("%w: data-%s", ErrMissingAttribute, name)
		}
	}

	s.bootstrapped = true
	s.org = attrs["org"]

	if s.spec.ContentBearing {
		if content == nil || content.ID == "" {
			return nil
		}
		if s.spec.Persistence != PersistNone && s.dismissals.Dismissed(s.org) == content.ID {
			return nil
		}
		s.contentID = content.ID
	}

	return s.machine.Fire(triggerShow)
}

// Receive handles a message posted by the iframe. It reports whether the
// message was acted on; anything from another origin, any string other
// than this kind's sentinel, and any message while not visible is ignored.
func (s *Session) Receive(origin, msg string) bool {
	if !s.embed.Allows(origin) || msg != s.spec.Sentinel {
		return false
	}
	if s.State() != StateVisible {
		return false
	}

	t := triggerMessage
	if s.spec.Permanent() {
		t = triggerDismiss
	}
	return s.machine.Fire(t) == nil
}

func (s *Session) Open() error {
	return s.control(triggerOpen)
}

func (s *Session) Close() error {
	return s.control(triggerClose)
}

func (s *Session) control(t trigger) error {
	switch s.State() {
	case StateDismissed:
		return ErrDismissed
	case StateAbsent:
		return ErrNotMounted
	}
	return s.machine.Fire(t)
}
