package database

import (
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_database.db")

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if db.Driver() != "sqlite" {
		t.Errorf("Expected sqlite driver, got %s", db.Driver())
	}

	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping database: %v", err)
	}
}

func TestNew_InvalidPath(t *testing.T) {
	_, err := New("/invalid/path/that/does/not/exist/test.db")
	if err == nil {
		t.Fatal("Expected error for invalid path, got nil")
	}
}

func TestInitialize(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_init.db")

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	// Verify tables were created
	tables := []string{
		"learners",
		"concepts",
		"course_blueprints",
		"course_runs",
		"mastery_states",
		"weak_points",
		"evidence_artifacts",
		"portfolio_items",
		"pins",
		"event_log",
	}

	for _, table := range tables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestInitialize_Idempotent(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "test_idem.db")

	db, err := New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		t.Fatalf("First initialize failed: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("Second initialize failed: %v", err)
	}
}
