package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/julienschmidt/httprouter"

	apiContext "boardly/internal/api/context"
	"boardly/internal/platform/auth"
	"boardly/internal/platform/repositories"
)

var orgColumns = []string{"id", "slug", "name", "embed_origins", "created_at", "updated_at"}

func TestTenantMiddleware(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	middleware := NewTenantMiddleware(repositories.NewOrganizationRepository(db))

	t.Run("Valid Tenant", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{OrganizationID: "org_123"})
		req = req.WithContext(ctx)

		rows := sqlmock.NewRows(orgColumns).
			AddRow("org_123", "test-org", "Test Org", `["https://test.com"]`, 1234567890, 1234567890)
		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_123").
			WillReturnRows(rows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*apiContext.TenantContext)
			if tenant.OrgID != "org_123" || tenant.OrgSlug != "test-org" {
				t.Errorf("unexpected tenant %+v", tenant)
			}
			if len(tenant.Org.EmbedOrigins) != 1 {
				t.Errorf("EmbedOrigins = %v", tenant.Org.EmbedOrigins)
			}
			w.WriteHeader(http.StatusOK)
		})
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
		}
	})

	t.Run("Invalid Tenant", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{OrganizationID: "org_999"})
		req = req.WithContext(ctx)

		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE id = ?").
			WithArgs("org_999").
			WillReturnError(sql.ErrNoRows)

		rr := httptest.NewRecorder()
		handler := middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		})
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusForbidden)
		}
	})

	t.Run("Missing Claims", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()
		middleware.Handle(func(w http.ResponseWriter, r *http.Request) {
			t.Error("Handler should not be called")
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusUnauthorized)
		}
	})

	t.Run("Public Slug", func(t *testing.T) {
		req, _ := http.NewRequest("GET", "/api/v1/public/test-org/posts", nil)
		ps := httprouter.Params{{Key: "org_slug", Value: "test-org"}}
		req = req.WithContext(context.WithValue(req.Context(), apiContext.Params, ps))

		mock.ExpectQuery("SELECT (.+) FROM organizations WHERE slug = ?").
			WithArgs("test-org").
			WillReturnRows(sqlmock.NewRows(orgColumns).AddRow("org_123", "test-org", "Test Org", `[]`, 1, 1))

		rr := httptest.NewRecorder()
		middleware.HandlePublic(func(w http.ResponseWriter, r *http.Request) {
			tenant := r.Context().Value(apiContext.Tenant).(*apiContext.TenantContext)
			if tenant.OrgID != "org_123" {
				t.Errorf("Expected OrgID org_123, got %s", tenant.OrgID)
			}
			w.WriteHeader(http.StatusNoContent)
		}).ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusNoContent)
		}
	})

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}
