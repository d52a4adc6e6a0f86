package widgets

import "testing"

func TestNormalizeOrigin(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"https://Example.com", "https://example.com", true},
		{"https://example.com/", "https://example.com", true},
		{"http://localhost:3000", "http://localhost:3000", true},
		{"https://example.com/path", "", false},
		{"https://example.com?x=1", "", false},
		{"https://user@example.com", "", false},
		{"ftp://example.com", "", false},
		{"null", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeOrigin(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NormalizeOrigin(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestOriginPolicy(t *testing.T) {
	open := NewOriginPolicy(nil)
	if !open.Unrestricted() {
		t.Error("empty policy should be unrestricted")
	}
	if !open.Allows("https://anything.test") {
		t.Error("unrestricted policy should allow any valid origin")
	}
	if open.Allows("javascript:alert(1)") {
		t.Error("unrestricted policy should still reject non-origins")
	}

	strict := NewOriginPolicy([]string{"https://shop.acme.com", "http://localhost:8000/"})
	if strict.Unrestricted() {
		t.Error("configured policy should be restricted")
	}
	for _, o := range []string{"https://shop.acme.com", "https://SHOP.acme.com", "http://localhost:8000"} {
		if !strict.Allows(o) {
			t.Errorf("Allows(%q) = false, want true", o)
		}
	}
	for _, o := range []string{"https://evil.test", "http://shop.acme.com", "https://shop.acme.com.evil.test"} {
		if strict.Allows(o) {
			t.Errorf("Allows(%q) = true, want false", o)
		}
	}

	broken := NewOriginPolicy([]string{"not an origin"})
	if broken.Unrestricted() || broken.Allows("https://example.com") {
		t.Error("policy with only invalid entries must deny everything")
	}
}

func TestSentinels(t *testing.T) {
	want := map[string]bool{
		"boardly:feedback:close":           true,
		"boardly:changelog-popup:close":    true,
		"boardly:changelog-dropdown:close": true,
		"boardly:announcement-bar:dismiss": true,
	}
	got := Sentinels()
	if len(got) != len(want) {
		t.Fatalf("Sentinels() = %v", got)
	}
	for _, s := range got {
		if !want[s] {
			t.Errorf("unexpected sentinel %q", s)
		}
	}
}

func TestLookup(t *testing.T) {
	s, err := ByScript("/changelog-dropdown.js")
	if err != nil {
		t.Fatalf("ByScript() error = %v", err)
	}
	if s.Kind != KindChangelogDropdown || s.FrameID() != "boardly-changelog-dropdown" || s.EmbedPath() != "/embed/changelog-dropdown" {
		t.Errorf("unexpected spec %+v", s)
	}
	if _, err := ByScript("/unknown.js"); err != ErrUnknownKind {
		t.Errorf("ByScript(unknown) error = %v", err)
	}
	if _, err := Lookup(KindAnnouncementBar); err != nil {
		t.Errorf("Lookup() error = %v", err)
	}
}
