package webhooks

import (
	"time"

	"github.com/goccy/go-json"

	"boardly/internal/platform/models"
)

// timestampLayout is ISO-8601 in UTC with millisecond precision.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the body POSTed to every matching subscription. One envelope
// is marshalled once per dispatch and shared by all recipients.
type Envelope struct {
	Event     models.EventName `json:"event"`
	Payload   interface{}      `json:"payload"`
	Timestamp string           `json:"timestamp"`
}

func NewEnvelope(event models.EventName, payload interface{}, at time.Time) Envelope {
	return Envelope{
		Event:     event,
		Payload:   payload,
		Timestamp: at.UTC().Format(timestampLayout),
	}
}

func (e Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
