package widgets

import (
	"errors"
	"testing"
)

const embedOrigin = "https://app.boardly.test"

func newSession(t *testing.T, kind Kind, store DismissalStore) *Session {
	t.Helper()
	s, err := NewSession(kind, embedOrigin, store)
	if err != nil {
		t.Fatalf("NewSession(%s) error = %v", kind, err)
	}
	return s
}

func TestSession_AnnouncementDismissalPersists(t *testing.T) {
	store := NewMemoryDismissals()

	first := newSession(t, KindAnnouncementBar, store)
	if err := first.Bootstrap(Attrs{"org": "acme"}, &Content{ID: "abc123"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if got := first.State(); got != StateVisible {
		t.Fatalf("State() = %s, want visible", got)
	}
	if !first.Receive(embedOrigin, "boardly:announcement-bar:dismiss") {
		t.Fatal("expected dismiss sentinel to be handled")
	}
	if got := first.State(); got != StateDismissed {
		t.Fatalf("State() = %s, want dismissed", got)
	}
	if err := first.Open(); !errors.Is(err, ErrDismissed) {
		t.Errorf("Open() error = %v, want ErrDismissed", err)
	}
	if err := first.Close(); !errors.Is(err, ErrDismissed) {
		t.Errorf("Close() error = %v, want ErrDismissed", err)
	}

	same := newSession(t, KindAnnouncementBar, store)
	if err := same.Bootstrap(Attrs{"org": "acme"}, &Content{ID: "abc123"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if got := same.State(); got != StateAbsent {
		t.Errorf("dismissed entry: State() = %s, want absent", got)
	}

	fresh := newSession(t, KindAnnouncementBar, store)
	if err := fresh.Bootstrap(Attrs{"org": "acme"}, &Content{ID: "xyz789"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if got := fresh.State(); got != StateVisible {
		t.Errorf("new entry: State() = %s, want visible", got)
	}

	otherOrg := newSession(t, KindAnnouncementBar, store)
	if err := otherOrg.Bootstrap(Attrs{"org": "globex"}, &Content{ID: "abc123"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if got := otherOrg.State(); got != StateVisible {
		t.Errorf("other org: State() = %s, want visible", got)
	}
}

func TestSession_Bootstrap(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		attrs   Attrs
		content *Content
		want    State
		wantErr error
	}{
		{"feedback mounts without content", KindFeedback, Attrs{"org": "acme"}, nil, StateVisible, nil},
		{"missing org", KindFeedback, Attrs{}, nil, StateAbsent, ErrMissingAttribute},
		{"blank org", KindChangelogPopup, Attrs{"org": "  "}, &Content{ID: "cl_1"}, StateAbsent, ErrMissingAttribute},
		{"popup without entry", KindChangelogPopup, Attrs{"org": "acme"}, nil, StateAbsent, nil},
		{"popup with entry", KindChangelogPopup, Attrs{"org": "acme"}, &Content{ID: "cl_1"}, StateVisible, nil},
		{"dropdown with target", KindChangelogDropdown, Attrs{"org": "acme", "target": "#whatsnew"}, &Content{ID: "cl_1"}, StateVisible, nil},
		{"bar with empty id", KindAnnouncementBar, Attrs{"org": "acme"}, &Content{}, StateAbsent, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession(t, tt.kind, NewMemoryDismissals())
			err := s.Bootstrap(tt.attrs, tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Bootstrap() error = %v, want %v", err, tt.wantErr)
				}
			} else if err != nil {
				t.Fatalf("Bootstrap() error = %v", err)
			}
			if got := s.State(); got != tt.want {
				t.Errorf("State() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSession_BootstrapOnce(t *testing.T) {
	s := newSession(t, KindFeedback, nil)
	if err := s.Bootstrap(Attrs{"org": "acme"}, nil); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if err := s.Bootstrap(Attrs{"org": "acme"}, nil); !errors.Is(err, ErrAlreadyBootstrapped) {
		t.Errorf("second Bootstrap() error = %v, want ErrAlreadyBootstrapped", err)
	}
}

func TestSession_ReceiveIgnoresForeignAndUnknownMessages(t *testing.T) {
	s := newSession(t, KindFeedback, nil)
	if err := s.Bootstrap(Attrs{"org": "acme"}, nil); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	ignored := []struct{ origin, msg string }{
		{"https://evil.test", "boardly:feedback:close"},
		{"null", "boardly:feedback:close"},
		{embedOrigin, "boardly:changelog-popup:close"},
		{embedOrigin, "close"},
		{embedOrigin, "boardly:feedback:close "},
	}
	for _, m := range ignored {
		if s.Receive(m.origin, m.msg) {
			t.Errorf("Receive(%q, %q) handled, want ignored", m.origin, m.msg)
		}
	}
	if got := s.State(); got != StateVisible {
		t.Fatalf("State() = %s, want visible", got)
	}

	if !s.Receive(embedOrigin+"/", "boardly:feedback:close") {
		t.Fatal("expected close sentinel to be handled")
	}
	if got := s.State(); got != StateHiddenByMessage {
		t.Errorf("State() = %s, want hidden_by_message", got)
	}
}

func TestSession_ControlObject(t *testing.T) {
	s := newSession(t, KindFeedback, nil)

	if err := s.Open(); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Open() before bootstrap error = %v, want ErrNotMounted", err)
	}
	if err := s.Bootstrap(Attrs{"org": "acme"}, nil); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}

	steps := []struct {
		name string
		do   func() error
		want State
	}{
		{"open while visible", s.Open, StateVisible},
		{"close", s.Close, StateHiddenByControl},
		{"close again", s.Close, StateHiddenByControl},
		{"reopen", s.Open, StateVisible},
		{"hide by message", func() error {
			s.Receive(embedOrigin, "boardly:feedback:close")
			return nil
		}, StateHiddenByMessage},
		{"reopen after message", s.Open, StateVisible},
	}
	for _, step := range steps {
		if err := step.do(); err != nil {
			t.Fatalf("%s: error = %v", step.name, err)
		}
		if got := s.State(); got != step.want {
			t.Fatalf("%s: State() = %s, want %s", step.name, got, step.want)
		}
	}
}

func TestSession_PopupHidesForSession(t *testing.T) {
	store := NewMemoryDismissals()
	s := newSession(t, KindChangelogPopup, store)
	if err := s.Bootstrap(Attrs{"org": "acme"}, &Content{ID: "cl_9"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if !s.Receive(embedOrigin, "boardly:changelog-popup:close") {
		t.Fatal("expected sentinel to be handled")
	}
	if got := s.State(); got != StateHiddenByMessage {
		t.Fatalf("State() = %s, want hidden_by_message", got)
	}
	if got := store.Dismissed("acme"); got != "cl_9" {
		t.Errorf("Dismissed() = %q, want cl_9", got)
	}
	if err := s.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := s.State(); got != StateVisible {
		t.Errorf("State() = %s, want visible", got)
	}
}

func TestSession_DropdownDoesNotPersist(t *testing.T) {
	store := NewMemoryDismissals()
	s := newSession(t, KindChangelogDropdown, store)
	if err := s.Bootstrap(Attrs{"org": "acme"}, &Content{ID: "cl_1"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	s.Receive(embedOrigin, "boardly:changelog-dropdown:close")
	if got := store.Dismissed("acme"); got != "" {
		t.Errorf("Dismissed() = %q, want empty", got)
	}
}

func TestStaticDismissal(t *testing.T) {
	s := newSession(t, KindAnnouncementBar, StaticDismissal("abc123"))
	if err := s.Bootstrap(Attrs{"org": "acme"}, &Content{ID: "abc123"}); err != nil {
		t.Fatalf("Bootstrap() error = %v", err)
	}
	if got := s.State(); got != StateAbsent {
		t.Errorf("State() = %s, want absent", got)
	}
}

func TestNewSession_UnknownKind(t *testing.T) {
	if _, err := NewSession("chat", embedOrigin, nil); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("NewSession() error = %v, want ErrUnknownKind", err)
	}
}
