package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func runMigrate(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("migrate %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestMigrateLifecycle(t *testing.T) {
	db := filepath.Join(t.TempDir(), "streaker.db")

	if got := runMigrate(t, "--db", db, "version"); !strings.Contains(got, "version 0") {
		t.Errorf("fresh database version, got %q", got)
	}

	up := runMigrate(t, "--db", db, "up")
	for _, file := range []string{"00001_init.sql", "00002_friends.sql"} {
		if !strings.Contains(up, file) {
			t.Errorf("up output missing %s:\n%s", file, up)
		}
	}
	if got := runMigrate(t, "--db", db, "version"); !strings.Contains(got, "version 2") {
		t.Errorf("after up, got %q", got)
	}

	status := runMigrate(t, "--db", db, "status")
	if n := strings.Count(status, "applied"); n != 2 {
		t.Errorf("status shows %d applied migrations, want 2:\n%s", n, status)
	}

	runMigrate(t, "--db", db, "down")
	if got := runMigrate(t, "--db", db, "version"); !strings.Contains(got, "version 1") {
		t.Errorf("after down, got %q", got)
	}

	runMigrate(t, "--db", db, "up-one")
	runMigrate(t, "--db", db, "reset")
	if got := runMigrate(t, "--db", db, "version"); !strings.Contains(got, "version 0") {
		t.Errorf("after reset, got %q", got)
	}
}

func TestMigrateUnknownCommand(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"sideways"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for unknown command")
	}
}
