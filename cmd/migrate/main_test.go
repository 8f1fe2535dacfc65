package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	up, down, err := createMigration("add_index", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if filepath.Base(up) != "20260102030405_add_index.up.sql" || !strings.HasSuffix(down, ".down.sql") {
		t.Fatalf("unexpected paths %s %s", up, down)
	}
	if _, err := os.Stat(up); err != nil {
		t.Fatalf("up file missing: %v", err)
	}
	if _, _, err := createMigration("add_index", now); err == nil {
		t.Fatalf("expected an error for an existing migration")
	}
	if _, _, err := createMigration("bad name", now); err == nil {
		t.Fatalf("expected an error for a name with spaces")
	}
	if _, _, err := createMigration("", now); err == nil {
		t.Fatalf("expected an error for an empty name")
	}
}
