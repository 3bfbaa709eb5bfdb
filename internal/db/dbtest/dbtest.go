// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gamedeck/socialgraph/internal/db"
	"github.com/gamedeck/socialgraph/internal/models"
	"github.com/gamedeck/socialgraph/pkg/config"
)

var seq atomic.Int64

// New opens a migrated in-memory SQLite database private to the test
func New(t testing.TB) *db.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	url := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_txlock=immediate", name, seq.Add(1))

	database, err := db.New(&config.DatabaseConfig{Driver: "sqlite", URL: url}, "ERROR")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return database
}

// Account inserts an account with the given visibility
func Account(t testing.TB, database *db.DB, uid, visibility string) *models.Account {
	t.Helper()

	now := time.Now().UTC()
	acc := &models.Account{
		ID:          uid,
		DisplayName: strings.ToUpper(uid[:1]) + uid[1:],
		Username:    uid,
		PhotoURL:    "https://cdn.example.com/" + uid + ".png",
		AvatarKey:   "avatar/" + uid,
		Bio:         "hi, I am " + uid,
		Visibility:  visibility,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	repo := db.NewAccountRepository(db.NewRepository(database.DB))
	if err := repo.Create(context.Background(), acc); err != nil {
		t.Fatalf("failed to create account %s: %v", uid, err)
	}
	return acc
}
