package models

// Subscription is a destination URL an organization wants notified of
// events. Rows live in the webhooks table.
type Subscription struct {
	ID        string   `json:"id"`
	OrgID     string   `json:"org_id"`
	URL       string   `json:"url"`
	Secret    *string  `json:"-"`
	Events    []string `json:"events"` // JSON array in DB
	IsActive  bool     `json:"is_active"`
	CreatedAt int64    `json:"created_at"`
	UpdatedAt int64    `json:"updated_at"`
}

// Signed reports whether deliveries to s carry a signature header.
func (s *Subscription) Signed() bool {
	return s.Secret != nil && *s.Secret != ""
}

// Wants reports whether s is active and subscribed to event.
func (s *Subscription) Wants(event EventName) bool {
	if !s.IsActive {
		return false
	}
	for _, e := range s.Events {
		if e == string(event) {
			return true
		}
	}
	return false
}
