package main

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pressly/goose/v3"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file lives in cmd/migrate/, so repo root is ../..
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "..", ".."))
	return filepath.Join(repoRoot, "db", "migrations")
}

func TestCollectMigrations_ParsesMigrationsDir(t *testing.T) {
	if _, err := goose.CollectMigrations(migrationsDir(t), 0, goose.MaxVersion); err != nil {
		t.Fatalf("expected migrations to parse, got error: %v", err)
	}
}

func TestSQLMigrations_HaveGooseDirectives(t *testing.T) {
	dir := migrationsDir(t)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}
	if len(entries) == 0 {
		t.Fatal("no migration files found")
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", e.Name(), err)
		}
		s := string(b)
		if !strings.Contains(s, "-- +goose Up") {
			t.Fatalf("%s missing '-- +goose Up'", e.Name())
		}
		if !strings.Contains(s, "-- +goose Down") {
			t.Fatalf("%s missing '-- +goose Down'", e.Name())
		}
	}
}

func TestSQLMigrations_CoverCoreTables(t *testing.T) {
	dir := migrationsDir(t)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir(%s): %v", dir, err)
	}

	var all strings.Builder
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", e.Name(), err)
		}
		all.Write(b)
	}

	s := all.String()
	for _, table := range []string{
		"CREATE TABLE users",
		"CREATE TABLE token_blacklist",
		"CREATE TABLE categories",
		"CREATE TABLE books",
		"CREATE TABLE requests",
		"CREATE TABLE notifications",
		"CREATE TABLE outbound_messages",
		"CREATE TABLE reminders",
	} {
		if !strings.Contains(s, table) {
			t.Fatalf("migrations missing %q", table)
		}
	}
}

// A pending borrow and an accepted unfinished borrow must share one unique
// index: split pending/accepted indexes would admit one row each and let
// the pair coexist for the same user and book.
func TestRequestsMigration_SingleLiveBorrowIndex(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(migrationsDir(t), "20250301000003_create_requests.sql"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	s := string(b)

	if !strings.Contains(s, "uq_requests_one_live_borrow") {
		t.Fatal("missing combined live-borrow unique index")
	}
	if !strings.Contains(s, "(status = 'pending' OR (status = 'accepted' AND NOT is_finished))") {
		t.Fatal("live-borrow index must cover both pending and accepted-unfinished in one predicate")
	}
	if !strings.Contains(s, "WHERE status = 'pending' AND kind <> 'borrow'") {
		t.Fatal("per-kind pending index must exclude borrows, which the combined index covers")
	}
}

func TestOutboxMigration_SupportsClaims(t *testing.T) {
	b, err := os.ReadFile(filepath.Join(migrationsDir(t), "20250301000005_create_outbox.sql"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	s := string(b)

	if !strings.Contains(s, "'sending'") {
		t.Fatal("outbound_messages status CHECK missing 'sending'")
	}
	if !strings.Contains(s, "claimed_at") {
		t.Fatal("outbound_messages missing claimed_at column")
	}
}
