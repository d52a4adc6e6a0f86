package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "boardly/internal/api/context"
	"boardly/internal/pkg/errors"
	"boardly/internal/pkg/validator"
	"boardly/internal/platform/auth"
	"boardly/internal/platform/repositories"
)

const maxBodyBytes = 1 << 20

func tenantFrom(r *http.Request) *apiContext.TenantContext {
	tenant, _ := r.Context().Value(apiContext.Tenant).(*apiContext.TenantContext)
	return tenant
}

func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := r.Context().Value(apiContext.Claims).(*auth.Claims)
	return claims
}

func param(r *http.Request, name string) string {
	ps, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
	return ps.ByName(name)
}

// decodeAndValidate reads a JSON body into v and runs its validate tags.
// It writes the error response itself and reports whether to continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Unable to read request body", nil)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return false
	}

	if err := validator.Struct(v); err != nil {
		var fe validator.FieldErrors
		if stderrors.As(err, &fe) {
			errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Validation failed", fe)
			return false
		}
		log.Error().Err(err).Msg("request validation error")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Validation error", nil)
		return false
	}
	return true
}

// writeRepoError maps repository errors to responses; resource names the
// thing that was looked up.
func writeRepoError(w http.ResponseWriter, err error, resource string) {
	if stderrors.Is(err, repositories.ErrNotFound) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, resource+" not found", nil)
		return
	}
	log.Error().Err(err).Str("resource", resource).Msg("database error")
	errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
}
