package integrations

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"boardly/internal/engine/webhooks"
	"boardly/internal/platform/config"
	"boardly/internal/platform/models"
)

type memoryStore struct {
	saved []*models.Integration
}

func (m *memoryStore) Upsert(ctx context.Context, in *models.Integration) error {
	m.saved = append(m.saved, in)
	return nil
}

func testConfig() config.IntegrationsConfig {
	return config.IntegrationsConfig{
		Slack:            config.OAuthProviderConfig{ClientID: "slack-id", ClientSecret: "slack-secret", RedirectURL: "https://app.boardly.test/api/v1/integrations/slack/callback"},
		Google:           config.OAuthProviderConfig{ClientID: "google-id", ClientSecret: "google-secret"},
		DefaultReturnURL: "/settings/integrations",
		StateSecret:      testSecret,
	}
}

const testSecret = "state-secret"

func TestState_RoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0)
	in := State{OrgID: "org_1", OrgSlug: "acme", ReturnTo: "/settings", Nonce: "n-1", ExpiresAt: now.Add(time.Minute).Unix()}

	raw, err := EncodeState(testSecret, in)
	if err != nil {
		t.Fatalf("EncodeState() error = %v", err)
	}
	out, err := DecodeState(testSecret, raw, now)
	if err != nil {
		t.Fatalf("DecodeState() error = %v", err)
	}
	if out != in {
		t.Errorf("DecodeState() = %+v, want %+v", out, in)
	}

	payload, sig, _ := strings.Cut(raw, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"org_id":"org_victim","nonce":"n-1","exp":1700000060}`))
	expired, _ := EncodeState(testSecret, State{OrgID: "org_1", Nonce: "n-1", ExpiresAt: now.Add(-time.Second).Unix()})
	noNonce, _ := EncodeState(testSecret, State{OrgID: "org_1", ExpiresAt: now.Add(time.Minute).Unix()})

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"garbage", "!!!"},
		{"unsigned payload", payload},
		{"forged payload with copied signature", forged + "." + sig},
		{"forged payload signed with another key", forged + "." + webhooks.Sign("other-key", []byte(forged))},
		{"bad signature encoding", payload + ".zz"},
		{"expired", expired},
		{"missing nonce", noNonce},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeState(testSecret, tt.raw, now); !errors.Is(err, ErrInvalidState) {
				t.Errorf("DecodeState(%q) error = %v, want ErrInvalidState", tt.raw, err)
			}
		})
	}

	if _, err := DecodeState("", raw, now); !errors.Is(err, ErrInvalidState) {
		t.Errorf("DecodeState with empty secret error = %v, want ErrInvalidState", err)
	}
	if _, err := EncodeState("", in); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("EncodeState with empty secret error = %v, want ErrNotConfigured", err)
	}
}

func TestService_AuthorizeURL(t *testing.T) {
	svc := NewService(testConfig(), &memoryStore{})

	raw, err := svc.AuthorizeURL(ProviderSlack, State{OrgID: "org_1", OrgSlug: "acme", ReturnTo: "https://evil.test"})
	if err != nil {
		t.Fatalf("AuthorizeURL() error = %v", err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse authorize url: %v", err)
	}
	if u.Host != "slack.com" {
		t.Errorf("host = %q, want slack.com", u.Host)
	}
	q := u.Query()
	if q.Get("client_id") != "slack-id" {
		t.Errorf("client_id = %q", q.Get("client_id"))
	}
	st, err := DecodeState(testSecret, q.Get("state"), time.Now())
	if err != nil {
		t.Fatalf("state in url: %v", err)
	}
	if st.OrgID != "org_1" || st.ReturnTo != "/settings/integrations" || st.Nonce == "" {
		t.Errorf("state = %+v", st)
	}
	if ttl := time.Until(time.Unix(st.ExpiresAt, 0)); ttl <= 0 || ttl > 10*time.Minute {
		t.Errorf("state expires in %v, want within the default ttl", ttl)
	}

	gurl, err := svc.AuthorizeURL(ProviderGoogle, State{OrgID: "org_1"})
	if err != nil {
		t.Fatalf("AuthorizeURL(google) error = %v", err)
	}
	if gu, _ := url.Parse(gurl); gu.Query().Get("access_type") != "offline" {
		t.Errorf("google url missing offline access: %s", gurl)
	}
}

func TestService_NotConfigured(t *testing.T) {
	svc := NewService(testConfig(), &memoryStore{})

	if _, err := svc.AuthorizeURL(ProviderLinear, State{OrgID: "org_1"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("AuthorizeURL(linear) error = %v, want ErrNotConfigured", err)
	}
	if _, err := svc.AuthorizeURL("github", State{OrgID: "org_1"}); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("AuthorizeURL(github) error = %v, want ErrUnknownProvider", err)
	}
}

func TestService_Complete(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse token form: %v", err)
		}
		if r.Form.Get("code") != "auth-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"xoxb-1","token_type":"bearer","refresh_token":"r-1","expires_in":3600}`))
	}))
	defer tokenSrv.Close()

	store := &memoryStore{}
	svc := NewService(testConfig(), store)
	svc.configs[ProviderSlack].Endpoint.TokenURL = tokenSrv.URL

	raw, err := svc.AuthorizeURL(ProviderSlack, State{OrgID: "org_1", OrgSlug: "acme", ReturnTo: "/settings/integrations?connected=slack"})
	if err != nil {
		t.Fatalf("AuthorizeURL() error = %v", err)
	}
	authURL, _ := url.Parse(raw)
	raw = authURL.Query().Get("state")
	st, err := svc.Complete(context.Background(), ProviderSlack, "auth-code", raw)
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if st.ReturnTo != "/settings/integrations?connected=slack" {
		t.Errorf("ReturnTo = %q", st.ReturnTo)
	}

	if len(store.saved) != 1 {
		t.Fatalf("saved %d integrations, want 1", len(store.saved))
	}
	got := store.saved[0]
	if got.OrgID != "org_1" || got.Provider != "slack" || got.AccessToken != "xoxb-1" || got.RefreshToken != "r-1" {
		t.Errorf("saved = %+v", got)
	}
	if got.ExpiresAt == nil {
		t.Error("ExpiresAt not recorded")
	}

	if _, err := svc.Complete(context.Background(), ProviderSlack, "wrong", raw); err == nil {
		t.Error("expected exchange failure for rejected code")
	}
	if _, err := svc.Complete(context.Background(), ProviderSlack, "auth-code", "garbage"); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Complete(bad state) error = %v", err)
	}
}

func TestService_CompleteRejectsForgedState(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"attacker-token","token_type":"bearer"}`))
	}))
	defer tokenSrv.Close()

	store := &memoryStore{}
	svc := NewService(testConfig(), store)
	svc.configs[ProviderSlack].Endpoint.TokenURL = tokenSrv.URL

	body := `{"org_id":"org_victim","org_slug":"victim","return_to":"/","nonce":"x","exp":` +
		strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10) + `}`
	plain := base64.RawURLEncoding.EncodeToString([]byte(body))

	for _, raw := range []string{plain, plain + "." + webhooks.Sign("guessed-key", []byte(plain))} {
		if _, err := svc.Complete(context.Background(), ProviderSlack, "attacker-code", raw); !errors.Is(err, ErrInvalidState) {
			t.Errorf("Complete(forged) error = %v, want ErrInvalidState", err)
		}
	}
	if len(store.saved) != 0 {
		t.Errorf("stored %d tokens from forged state, want 0", len(store.saved))
	}
}

func TestService_StateExpires(t *testing.T) {
	store := &memoryStore{}
	svc := NewService(testConfig(), store)
	start := time.Unix(1700000000, 0)
	svc.now = func() time.Time { return start }

	raw, err := svc.AuthorizeURL(ProviderSlack, State{OrgID: "org_1"})
	if err != nil {
		t.Fatalf("AuthorizeURL() error = %v", err)
	}
	u, _ := url.Parse(raw)

	svc.now = func() time.Time { return start.Add(11 * time.Minute) }
	if _, err := svc.Complete(context.Background(), ProviderSlack, "auth-code", u.Query().Get("state")); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Complete(expired) error = %v, want ErrInvalidState", err)
	}
}

func TestService_MissingStateSecret(t *testing.T) {
	cfg := testConfig()
	cfg.StateSecret = ""
	svc := NewService(cfg, &memoryStore{})

	if _, err := svc.AuthorizeURL(ProviderSlack, State{OrgID: "org_1"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("AuthorizeURL() error = %v, want ErrNotConfigured", err)
	}
}

func TestSafeReturnTo(t *testing.T) {
	svc := NewService(config.IntegrationsConfig{DefaultReturnURL: "/home"}, &memoryStore{})
	tests := map[string]string{
		"/settings":         "/settings",
		"//evil.test/x":     "/home",
		"https://evil.test": "/home",
		"/\\evil.test":      "/home",
		"":                  "/home",
		"settings/relative": "/home",
	}
	for in, want := range tests {
		if got := svc.SafeReturnTo(in); got != want {
			t.Errorf("SafeReturnTo(%q) = %q, want %q", in, got, want)
		}
	}
}
