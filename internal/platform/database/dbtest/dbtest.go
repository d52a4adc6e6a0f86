// Package dbtest opens isolated, migrated in-memory databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"boardly/internal/platform/database"
)

// New returns a migrated in-memory database private to t.
func New(t testing.TB) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	// One connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

// SeedOrg inserts an organization row and returns its id.
func SeedOrg(t testing.TB, db *sql.DB, id, slug string, embedOrigins ...string) string {
	t.Helper()

	origins := "[]"
	if len(embedOrigins) > 0 {
		origins = `["` + embedOrigins[0] + `"`
		for _, o := range embedOrigins[1:] {
			origins += `,"` + o + `"`
		}
		origins += "]"
	}

	now := time.Now().Unix()
	_, err := db.Exec(`INSERT INTO organizations (id, slug, name, embed_origins, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, slug, slug, origins, now, now)
	if err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return id
}
