// Package integrations connects an organization to third-party tools over
// OAuth 2.0 and stores the resulting tokens.
package integrations

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"boardly/internal/engine/webhooks"
	"boardly/internal/platform/config"
	"boardly/internal/platform/models"
)

type Provider string

const (
	ProviderSlack  Provider = "slack"
	ProviderLinear Provider = "linear"
	ProviderGoogle Provider = "google"
)

var (
	ErrUnknownProvider = errors.New("unknown integration provider")
	ErrNotConfigured   = errors.New("integration provider not configured")
	ErrInvalidState    = errors.New("invalid oauth state")
)

var endpoints = map[Provider]oauth2.Endpoint{
	ProviderSlack: {
		AuthURL:  "https://slack.com/oauth/v2/authorize",
		TokenURL: "https://slack.com/api/oauth.v2.access",
	},
	ProviderLinear: {
		AuthURL:  "https://linear.app/oauth/authorize",
		TokenURL: "https://api.linear.app/oauth/token",
	},
	ProviderGoogle: {
		AuthURL:  "https://accounts.google.com/o/oauth2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	},
}

var scopes = map[Provider][]string{
	ProviderSlack:  {"chat:write", "incoming-webhook"},
	ProviderLinear: {"read", "write"},
	ProviderGoogle: {"openid", "email", "https://www.googleapis.com/auth/spreadsheets"},
}

// State travels through the provider's authorize redirect and back. It is
// signed so the unauthenticated callback can trust OrgID.
type State struct {
	OrgID     string `json:"org_id"`
	OrgSlug   string `json:"org_slug"`
	ReturnTo  string `json:"return_to"`
	Nonce     string `json:"nonce"`
	ExpiresAt int64  `json:"exp"`
}

// EncodeState returns base64url(JSON) + "." + hex HMAC-SHA256 of the
// encoded part under secret.
func EncodeState(secret string, s State) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("%w: state secret is empty", ErrNotConfigured)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(b)
	return payload + "." + webhooks.Sign(secret, []byte(payload)), nil
}

// DecodeState verifies the signature and expiry of raw. Every failure is
// ErrInvalidState.
func DecodeState(secret, raw string, now time.Time) (State, error) {
	var s State
	if secret == "" {
		return s, ErrInvalidState
	}

	payload, sig, ok := strings.Cut(raw, ".")
	if !ok || payload == "" || !webhooks.Verify(secret, []byte(payload), sig) {
		return s, ErrInvalidState
	}

	b, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return s, ErrInvalidState
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return s, ErrInvalidState
	}
	if s.OrgID == "" || s.Nonce == "" || now.Unix() > s.ExpiresAt {
		return State{}, ErrInvalidState
	}
	return s, nil
}

type TokenStore interface {
	Upsert(ctx context.Context, in *models.Integration) error
}

type Service struct {
	configs       map[Provider]*oauth2.Config
	store         TokenStore
	defaultReturn string
	stateSecret   string
	stateTTL      time.Duration
	now           func() time.Time
}

func NewService(cfg config.IntegrationsConfig, store TokenStore) *Service {
	providers := map[Provider]config.OAuthProviderConfig{
		ProviderSlack:  cfg.Slack,
		ProviderLinear: cfg.Linear,
		ProviderGoogle: cfg.Google,
	}

	configs := make(map[Provider]*oauth2.Config, len(providers))
	for p, pc := range providers {
		configs[p] = &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Endpoint:     endpoints[p],
			Scopes:       scopes[p],
		}
	}

	defaultReturn := cfg.DefaultReturnURL
	if defaultReturn == "" {
		defaultReturn = "/"
	}

	stateTTL := cfg.StateTTL
	if stateTTL <= 0 {
		stateTTL = 10 * time.Minute
	}

	return &Service{
		configs:       configs,
		store:         store,
		defaultReturn: defaultReturn,
		stateSecret:   cfg.StateSecret,
		stateTTL:      stateTTL,
		now:           time.Now,
	}
}

func (s *Service) config(p Provider) (*oauth2.Config, error) {
	c, ok := s.configs[p]
	if !ok {
		return nil, ErrUnknownProvider
	}
	if c.ClientID == "" {
		return nil, fmt.Errorf("%w: %s client id is empty", ErrNotConfigured, p)
	}
	return c, nil
}

// AuthorizeURL builds the provider redirect for st.
func (s *Service) AuthorizeURL(p Provider, st State) (string, error) {
	c, err := s.config(p)
	if err != nil {
		return "", err
	}

	st.ReturnTo = s.SafeReturnTo(st.ReturnTo)
	st.Nonce = uuid.NewString()
	st.ExpiresAt = s.now().Add(s.stateTTL).Unix()
	state, err := EncodeState(s.stateSecret, st)
	if err != nil {
		return "", err
	}

	var opts []oauth2.AuthCodeOption
	if p == ProviderGoogle {
		opts = append(opts, oauth2.AccessTypeOffline, oauth2.SetAuthURLParam("prompt", "consent"))
	}
	return c.AuthCodeURL(state, opts...), nil
}

// Complete exchanges code and records the token for the organization named
// in the state. The decoded state is returned so the caller can redirect.
func (s *Service) Complete(ctx context.Context, p Provider, code, rawState string) (State, error) {
	c, err := s.config(p)
	if err != nil {
		return State{}, err
	}

	st, err := DecodeState(s.stateSecret, rawState, s.now())
	if err != nil {
		return State{}, err
	}
	st.ReturnTo = s.SafeReturnTo(st.ReturnTo)

	if code == "" {
		return st, errors.New("missing authorization code")
	}

	tok, err := c.Exchange(ctx, code)
	if err != nil {
		return st, fmt.Errorf("exchange %s code: %w", p, err)
	}

	in := &models.Integration{
		OrgID:        st.OrgID,
		Provider:     string(p),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
	}
	if !tok.Expiry.IsZero() {
		exp := tok.Expiry.Unix()
		in.ExpiresAt = &exp
	}

	if err := s.store.Upsert(ctx, in); err != nil {
		return st, fmt.Errorf("store %s token: %w", p, err)
	}
	return st, nil
}

// SafeReturnTo keeps same-site relative paths and falls back to the
// configured default for anything else.
func (s *Service) SafeReturnTo(raw string) string {
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") && !strings.Contains(raw, "\\") {
		return raw
	}
	return s.defaultReturn
}

func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(raw))
	if _, ok := endpoints[p]; !ok {
		return "", ErrUnknownProvider
	}
	return p, nil
}
