package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/exam-seating/internal/database/migrations"
)

func TestDSN(t *testing.T) {
	cfg, err := mysql.ParseDSN(DSN("exam", "s3cret", "db", "3306", "seating"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.User != "exam" || cfg.Passwd != "s3cret" || cfg.Addr != "db:3306" || cfg.DBName != "seating" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if !cfg.ParseTime || cfg.Loc != time.UTC {
		t.Fatalf("expected parseTime in UTC, got %v %v", cfg.ParseTime, cfg.Loc)
	}

	cfg, err = mysql.ParseDSN(DSN("exam", "", "db", "3306", "seating"))
	if err != nil || cfg.Passwd != "" {
		t.Fatalf("expected empty password, got %q %v", cfg.Passwd, err)
	}
}

func TestSplitStatements(t *testing.T) {
	src := `-- header comment
CREATE TABLE a (
    id INT
);

-- another
CREATE TABLE b (id INT);
INSERT INTO b VALUES (1)`
	stmts := SplitStatements(src)
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[0] != "CREATE TABLE a (\n    id INT\n)" {
		t.Fatalf("unexpected first statement: %q", stmts[0])
	}
	if stmts[2] != "INSERT INTO b VALUES (1)" {
		t.Fatalf("unexpected trailing statement: %q", stmts[2])
	}
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	want := map[string]int{"001_init.sql": 6, "002_datasets.sql": 16}
	for name, n := range want {
		raw, err := migrations.Files.ReadFile(name)
		if err != nil {
			t.Fatalf("read embedded migration %s: %v", name, err)
		}
		if got := len(SplitStatements(string(raw))); got != n {
			t.Fatalf("expected %d statements in %s, got %d", n, name, got)
		}
	}
}
