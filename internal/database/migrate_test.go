// Package database provides connection setup for MariaDB and Redis.
// This file validates migration SQL files to catch schema mismatches early.
package database

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
)

// validStatuses must match the ENUM values on upload_logs.status.
// Defined in 000001.
var validStatuses = map[string]bool{
	"success": true,
	"blocked": true,
	"error":   true,
}

// validStorages must match the ENUM values on upload_logs.storage and
// assets.storage. Update this set when a new storage adapter is added via
// ALTER TABLE.
var validStorages = map[string]bool{
	"r2":       true,
	"telegram": true,
	"legacy":   true,
}

// migrationsDir returns the absolute path to db/migrations/ from the project root.
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine test file path")
	}
	// thisFile is internal/database/migrate_test.go, project root is two dirs up.
	projectRoot := filepath.Join(filepath.Dir(thisFile), "..", "..")
	dir := filepath.Join(projectRoot, "db", "migrations")
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("migrations directory not found at %s: %v", dir, err)
	}
	return dir
}

// TestMigrations_SeededSettingValues scans .up.sql files for inserts into
// site_settings and validates that the seeded keys match the ones the
// settings service reads. A typo here would make the first toggle read miss
// its default.
func TestMigrations_SeededSettingValues(t *testing.T) {
	knownKeys := map[string]bool{
		"moderation_enabled": true,
		"quota_anonymous":    true,
		"quota_user":         true,
	}

	dir := migrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no migration files found")
	}

	keyPattern := regexp.MustCompile(`\('([a-z_]+)',\s*'[^']*'\)`)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}
		content := string(data)
		if !strings.Contains(content, "site_settings") {
			continue
		}

		inInsert := false
		for _, line := range strings.Split(content, "\n") {
			trimmed := strings.TrimSpace(strings.ToUpper(line))
			if strings.HasPrefix(trimmed, "INSERT INTO SITE_SETTINGS") {
				inInsert = true
			}
			if !inInsert {
				continue
			}
			for _, match := range keyPattern.FindAllStringSubmatch(line, -1) {
				if !knownKeys[match[1]] {
					t.Errorf("%s: unknown seeded setting key %q", filepath.Base(f), match[1])
				}
			}
			if strings.Contains(line, ";") {
				inInsert = false
			}
		}
	}
}

// TestMigrations_StorageEnumValues validates that any storage values used in
// INSERT/UPDATE statements are valid ENUM members. Prevents the "Data
// truncated" crash (Error 1265) when an invalid ENUM value is used.
func TestMigrations_StorageEnumValues(t *testing.T) {
	dir := migrationsDir(t)
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing migration files: %v", err)
	}

	storagePattern := regexp.MustCompile(`storage\s*[=,]\s*'([^']+)'`)

	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("reading %s: %v", f, err)
		}

		// Skip DDL (ENUM definitions); only check INSERT/UPDATE usage.
		inDDL := false
		for _, line := range strings.Split(string(data), "\n") {
			trimmed := strings.TrimSpace(strings.ToUpper(line))
			if strings.HasPrefix(trimmed, "CREATE TABLE") || strings.HasPrefix(trimmed, "ALTER TABLE") {
				inDDL = true
			}
			if inDDL {
				if strings.Contains(line, ";") {
					inDDL = false
				}
				continue
			}
			for _, match := range storagePattern.FindAllStringSubmatch(line, -1) {
				if !validStorages[match[1]] {
					t.Errorf("%s: invalid storage value %q; valid values: r2, telegram, legacy",
						filepath.Base(f), match[1])
				}
			}
		}
	}
}

// TestMigrations_UpDownPairs ensures every .up.sql has a matching .down.sql.
func TestMigrations_UpDownPairs(t *testing.T) {
	dir := migrationsDir(t)
	upFiles, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		t.Fatalf("globbing up files: %v", err)
	}

	for _, up := range upFiles {
		down := strings.Replace(up, ".up.sql", ".down.sql", 1)
		if _, err := os.Stat(down); err != nil {
			t.Errorf("missing down migration for %s", filepath.Base(up))
		}
	}
}
