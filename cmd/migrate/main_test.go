package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  int
		name     string
	}{
		{"0001_create_extraction_runs.sql", true, 1, "create_extraction_runs"},
		{"0012_add_index.sql", true, 12, "add_index"},
		{"001_invalid.sql", false, 0, ""},       // wrong number format
		{"0001_test", false, 0, ""},             // missing .sql
		{"0001.sql", false, 0, ""},              // missing name
		{"invalid_0001_test.sql", false, 0, ""}, // wrong order
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, ok := parseMigrationFilename(tt.filename)
			if ok != tt.valid || version != tt.version || name != tt.name {
				t.Errorf("parseMigrationFilename(%q) = (%d, %q, %v), want (%d, %q, %v)",
					tt.filename, version, name, ok, tt.version, tt.name, tt.valid)
			}
		})
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func TestReadMigrations(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0002_second.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.b` (id INT64);",
		"0001_first.sql":  "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);",
		"README.md":       "not a migration",
	})

	migrations, err := readMigrations(zerolog.Nop(), dir, target{project: "p", dataset: "d"})
	if err != nil {
		t.Fatalf("readMigrations failed: %v", err)
	}

	var got []string
	for _, m := range migrations {
		got = append(got, m.Filename)
	}
	if diff := cmp.Diff([]string{"0001_first.sql", "0002_second.sql"}, got); diff != "" {
		t.Errorf("migration order mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(migrations[0].SQL, "`p.d.a`") {
		t.Errorf("placeholders not replaced: %s", migrations[0].SQL)
	}
	if migrations[0].Checksum == migrations[1].Checksum {
		t.Error("different content should have different checksums")
	}
}

func TestReadMigrations_ChecksumIgnoresTarget(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0001_first.sql": "CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.a` (id INT64);",
	})

	a, err := readMigrations(zerolog.Nop(), dir, target{project: "p1", dataset: "d"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := readMigrations(zerolog.Nop(), dir, target{project: "p2", dataset: "d"})
	if err != nil {
		t.Fatal(err)
	}
	if a[0].Checksum != b[0].Checksum {
		t.Error("checksum should not depend on the project or dataset")
	}
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"0001_first.sql": "SELECT 1;",
		"0001_other.sql": "SELECT 2;",
	})

	_, err := readMigrations(zerolog.Nop(), dir, target{project: "p", dataset: "d"})
	if err == nil || !strings.Contains(err.Error(), "version 0001") {
		t.Errorf("expected duplicate version error, got %v", err)
	}
}

func TestReadMigrations_RepositoryFiles(t *testing.T) {
	dir, err := findMigrationsDir("migrations/bigquery")
	if err != nil {
		t.Fatalf("findMigrationsDir failed: %v", err)
	}
	migrations, err := readMigrations(zerolog.Nop(), dir, target{project: "proj", dataset: "budget_flow"})
	if err != nil {
		t.Fatalf("readMigrations failed: %v", err)
	}
	if len(migrations) < 2 {
		t.Fatalf("expected at least 2 migrations, got %d", len(migrations))
	}
	for _, want := range []string{"`proj.budget_flow.extraction_runs`", "`proj.budget_flow.flow_links`"} {
		found := false
		for _, m := range migrations {
			if strings.Contains(m.SQL, want) {
				found = true
			}
		}
		if !found {
			t.Errorf("no migration creates %s", want)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	migrations := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}
	applied := []AppliedMigration{{Version: 1}, {Version: 3}}

	got := pendingMigrations(migrations, applied)
	if len(got) != 1 || got[0].Version != 2 {
		t.Errorf("pendingMigrations() = %+v, want only version 2", got)
	}
}

func TestChecksumDrift(t *testing.T) {
	migrations := []Migration{
		{Version: 1, Filename: "0001_a.sql", Checksum: "aaa"},
		{Version: 2, Filename: "0002_b.sql", Checksum: "bbb"},
		{Version: 3, Filename: "0003_c.sql", Checksum: "ccc"},
	}
	applied := []AppliedMigration{
		{Version: 1, Checksum: "aaa"},
		{Version: 2, Checksum: "changed"},
		{Version: 3},
	}

	if diff := cmp.Diff([]string{"0002_b.sql"}, checksumDrift(migrations, applied)); diff != "" {
		t.Errorf("checksumDrift mismatch (-want +got):\n%s", diff)
	}
}
