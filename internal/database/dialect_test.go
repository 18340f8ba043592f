package database

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestRewritePlaceholdersToNumbered(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "simple placeholders",
			query: "SELECT * FROM users WHERE id = ? AND role = ?",
			want:  "SELECT * FROM users WHERE id = $1 AND role = $2",
		},
		{
			name:  "no placeholders",
			query: "SELECT COUNT(*) FROM users",
			want:  "SELECT COUNT(*) FROM users",
		},
		{
			name:  "question mark inside a string literal",
			query: "UPDATE users SET bio = 'what?' WHERE id = ?",
			want:  "UPDATE users SET bio = 'what?' WHERE id = $1",
		},
		{
			name:  "escaped quote inside a literal",
			query: "SELECT 'it''s a ?' , ?",
			want:  "SELECT 'it''s a ?' , $1",
		},
		{
			name:  "placeholder before and after a literal",
			query: "INSERT INTO t (a, b, c) VALUES (?, 'x?y', ?)",
			want:  "INSERT INTO t (a, b, c) VALUES ($1, 'x?y', $2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewritePlaceholdersToNumbered(tt.query); got != tt.want {
				t.Errorf("rewritePlaceholdersToNumbered() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMigrationsSubdirPerDialect(t *testing.T) {
	tests := []struct {
		dialect Dialect
		want    string
	}{
		{NewSQLiteDialect(), "sqlite"},
		{NewPostgresDialect(), "postgres"},
		{NewMySQLDialect(), "mysql"},
	}

	for _, tt := range tests {
		if got := tt.dialect.MigrationsSubdir(); got != tt.want {
			t.Errorf("%s MigrationsSubdir() = %q, want %q", tt.dialect.DriverName(), got, tt.want)
		}

		// Every dialect must ship its own schema files
		files, err := filepath.Glob(filepath.Join("../../migrations", tt.want, "*.sql"))
		if err != nil {
			t.Fatalf("glob: %v", err)
		}
		if len(files) == 0 {
			t.Errorf("no migration files for dialect %q", tt.want)
		}
	}
}

func TestMySQLDSNEnablesMultiStatements(t *testing.T) {
	d := NewMySQLDialect()

	tests := []struct {
		name string
		url  string
	}{
		{"bare url", "user:pw@tcp(localhost:3306)/courseforge"},
		{"url with params", "user:pw@tcp(localhost:3306)/courseforge?parseTime=true"},
		{"already set", "user:pw@tcp(localhost:3306)/courseforge?multiStatements=true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn := d.DSN(DialectConfig{URL: tt.url})
			if strings.Count(dsn, "multiStatements=") != 1 {
				t.Errorf("DSN() = %q, want exactly one multiStatements param", dsn)
			}
		})
	}
}

func TestRunMigrationsUsesDialectSubdir(t *testing.T) {
	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}

	// The sqlite schema must be in place
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		t.Fatalf("users table missing after migrations: %v", err)
	}

	// Re-running is a no-op thanks to the tracking table
	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
}
