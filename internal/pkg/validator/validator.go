package validator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"boardly/internal/platform/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
			return IsHTTPURL(fl.Field().String())
		})
		_ = validate.RegisterValidation("event", func(fl validator.FieldLevel) bool {
			return models.EventName(fl.Field().String()).Valid()
		})
		_ = validate.RegisterValidation("poststatus", func(fl validator.FieldLevel) bool {
			status := fl.Field().String()
			for _, s := range models.PostStatuses {
				if s == status {
					return true
				}
			}
			return false
		})
	})
	return validate
}

// FieldErrors maps a request field (json name when tagged) to a message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Struct validates v using its `validate` tags. Validation failures come
// back as FieldErrors; anything else is returned as-is.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		out[fieldName(fe)] = message(fe)
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	// Namespace looks like "createWebhookRequest.Events[0]"
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s item(s) or characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have at most %s item(s) or characters", fe.Param())
	case "httpurl":
		return "must be an absolute http or https URL"
	case "event":
		return fmt.Sprintf("unknown event %q", fe.Value())
	case "poststatus":
		return fmt.Sprintf("unknown status %q", fe.Value())
	case "email":
		return "must be a valid email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// IsHTTPURL reports whether raw is an absolute http(s) URL with a host.
func IsHTTPURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
