package dbopen

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"
)

func TestOpenMemory(t *testing.T) {
	db := OpenMemory(t)
	if err := db.Ping(); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("pragma foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys: got %d, want 1", fk)
	}
}

func TestOpen_WithSchema(t *testing.T) {
	db := OpenMemory(t, WithSchema(`CREATE TABLE things (id TEXT PRIMARY KEY)`))
	if _, err := db.Exec(`INSERT INTO things (id) VALUES ('a')`); err != nil {
		t.Fatalf("insert: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM things`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count: got %d, want 1", n)
	}
}

func TestOpen_BadSchema(t *testing.T) {
	_, err := Open(":memory:", WithSchema(`NOT VALID SQL`))
	if err == nil {
		t.Fatal("expected error for invalid schema")
	}
}

func TestIsBusy(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("database is locked"), true},
		{errors.New("SQLITE_BUSY: locked"), true},
		{errors.New("database table is locked"), true},
		{errors.New("syntax error"), false},
	}
	for _, tc := range cases {
		if got := IsBusy(tc.err); got != tc.want {
			t.Errorf("IsBusy(%v): got %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestRunTx_CommitAndRollback(t *testing.T) {
	db := OpenMemory(t, WithSchema(`CREATE TABLE n (v INTEGER)`))
	ctx := context.Background()

	err := RunTx(ctx, db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO n (v) VALUES (1)`)
		return err
	})
	if err != nil {
		t.Fatalf("commit tx: %v", err)
	}

	boom := errors.New("boom")
	err = RunTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`INSERT INTO n (v) VALUES (2)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("rollback tx: got %v, want boom", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM n`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("count after rollback: got %d, want 1", count)
	}
}
