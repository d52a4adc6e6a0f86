package webhooks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"boardly/internal/platform/config"
	"boardly/internal/platform/metrics"
	"boardly/internal/platform/models"
)

const userAgent = "boardly-webhooks/1"

// SubscriptionStore is the read side the dispatcher needs.
type SubscriptionStore interface {
	ListActiveByOrg(ctx context.Context, orgID string) ([]*models.Subscription, error)
}

// Dispatcher fans events out to an organization's webhook subscriptions.
// Delivery is best effort: each matching subscription gets a single POST,
// failures are logged and dropped, and the caller never learns the outcome.
//
// At most max_concurrency POSTs are in flight across all dispatches. A burst
// beyond that queues in memory, one parked goroutine per pending delivery,
// and a slow destination delays deliveries of unrelated events while it
// holds a slot.
type Dispatcher struct {
	store  SubscriptionStore
	client *http.Client
	slots  chan struct{}
	now    func() time.Time

	mu       sync.RWMutex
	closed   bool
	inflight conc.WaitGroup
}

func NewDispatcher(store SubscriptionStore, cfg config.WebhooksConfig) *Dispatcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 8
	}

	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: timeout},
		slots:  make(chan struct{}, maxConcurrency),
		now:    time.Now,
	}
}

// Dispatch returns immediately. Lookup, filtering and delivery run in the
// background, detached from ctx cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, orgID string, event models.EventName, payload interface{}) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Debug().Str("org_id", orgID).Str("event", string(event)).Msg("dispatcher closed, dropping event")
		return
	}

	ctx = context.WithoutCancel(ctx)
	d.inflight.Go(func() {
		d.dispatch(ctx, orgID, event, payload)
	})
}

func (d *Dispatcher) dispatch(ctx context.Context, orgID string, event models.EventName, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("org_id", orgID).Str("event", string(event)).Interface("panic", r).Msg("webhook dispatch panicked")
		}
	}()

	subs, err := d.store.ListActiveByOrg(ctx, orgID)
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Str("event", string(event)).Msg("failed to load webhook subscriptions")
		return
	}

	targets := Match(subs, event)
	if len(targets) == 0 {
		return
	}

	body, err := NewEnvelope(event, payload, d.now()).Marshal()
	if err != nil {
		log.Error().Err(err).Str("org_id", orgID).Str("event", string(event)).Msg("failed to encode webhook payload")
		return
	}

	metrics.WebhookDispatches.WithLabelValues(string(event)).Inc()

	var wg conc.WaitGroup
	for _, sub := range targets {
		sub := sub
		wg.Go(func() {
			d.slots <- struct{}{}
			defer func() { <-d.slots }()
			d.deliver(ctx, sub, event, body)
		})
	}
	wg.Wait()
}

// Match keeps the subscriptions that are active and subscribed to event.
func Match(subs []*models.Subscription, event models.EventName) []*models.Subscription {
	var out []*models.Subscription
	for _, s := range subs {
		if s != nil && s.Wants(event) {
			out = append(out, s)
		}
	}
	return out
}

func (d *Dispatcher) deliver(ctx context.Context, sub *models.Subscription, event models.EventName, body []byte) {
	logger := log.With().
		Str("webhook_id", sub.ID).
		Str("org_id", sub.OrgID).
		Str("url", sub.URL).
		Str("event", string(event)).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("webhook delivery panicked")
		}
	}()

	start := time.Now()
	status, err := d.post(ctx, sub, event, body)
	metrics.WebhookDeliveryDuration.WithLabelValues(string(event)).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.WebhookDeliveries.WithLabelValues(string(event), metrics.OutcomeFailed).Inc()
		logger.Warn().Err(err).Int("status", status).Msg("webhook delivery failed")
		return
	}

	metrics.WebhookDeliveries.WithLabelValues(string(event), metrics.OutcomeDelivered).Inc()
	logger.Debug().Int("status", status).Msg("webhook delivered")
}

func (d *Dispatcher) post(ctx context.Context, sub *models.Subscription, event models.EventName, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Webhook-Event", string(event))
	if sub.Signed() {
		req.Header.Set(SignatureHeader, Sign(*sub.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// Shutdown stops accepting new dispatches and waits for in-flight ones
// until ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
