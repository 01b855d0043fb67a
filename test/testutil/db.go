package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"os"
	"testing"

	"github.com/docuvault/docuvault/internal/config"
	"github.com/docuvault/docuvault/internal/db"
	"github.com/docuvault/docuvault/internal/model"
	"github.com/docuvault/docuvault/internal/pkg/timeutil"
	"github.com/docuvault/docuvault/internal/repo"
)

func OpenTestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		t.Skip("TEST_DB_HOST not set, skipping postgres test")
	}
	conn, err := db.Open(config.DatabaseConfig{
		Host:     host,
		Port:     5432,
		User:     "docuvault",
		Password: "docuvault_pass",
		DBName:   "docuvault_test",
		SSLMode:  "disable",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return conn, func() {
		_ = conn.Close()
	}
}

func NewID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// SeedUser inserts a user row with a unique username/email so tests sharing
// one database never collide.
func SeedUser(t *testing.T, conn *sql.DB) *model.User {
	t.Helper()
	id := NewID()
	now := timeutil.NowUnix()
	user := &model.User{
		ID:           id,
		Username:     "user-" + id[:8],
		Email:        "user-" + id[:8] + "@test.local",
		PasswordHash: "x",
		FullName:     "Test User " + id[:4],
		IsActive:     true,
		Ctime:        now,
		Mtime:        now,
	}
	if err := repo.NewUserRepo(conn).Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}
