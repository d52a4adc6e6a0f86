package widgets

import "sync"

// DismissalStore remembers the last dismissed entry id per organization
// slug. In a browser this is sessionStorage or localStorage on the host page.
type DismissalStore interface {
	Dismissed(org string) string
	Dismiss(org, id string)
}

type MemoryDismissals struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewMemoryDismissals() *MemoryDismissals {
	return &MemoryDismissals{ids: make(map[string]string)}
}

func (m *MemoryDismissals) Dismissed(org string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[org]
}

func (m *MemoryDismissals) Dismiss(org, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[org] = id
}

// StaticDismissal reports an id the host page already holds, as sent to
// the state endpoint. Dismiss is a no-op: the host persists it.
type StaticDismissal string

func (s StaticDismissal) Dismissed(string) string { return string(s) }

func (StaticDismissal) Dismiss(string, string) {}
