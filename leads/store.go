package leads

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/castlebay/sitechat/idgen"
)

const schema = `
CREATE TABLE IF NOT EXISTS leads (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL,
    email          TEXT NOT NULL,
    phone          TEXT NOT NULL DEFAULT '',
    company        TEXT NOT NULL DEFAULT '',
    inquiry_type   TEXT NOT NULL DEFAULT '',
    message        TEXT NOT NULL DEFAULT '',
    contact_method TEXT NOT NULL DEFAULT '',
    best_time      TEXT NOT NULL DEFAULT '',
    agree          INTEGER NOT NULL DEFAULT 0,
    newsletter     INTEGER NOT NULL DEFAULT 0,
    created_at     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_leads_created ON leads(created_at DESC);
`

// Store persists leads. New applies the schema so the package is
// self-contained against any database handle it is given.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// New creates a Store and applies the leads schema.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("leads: db is required")
	}
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("leads schema: %w", err)
		}
	}
	return &Store{db: db, newID: idgen.Prefixed("lead_", idgen.Default)}, nil
}

// Insert validates the lead and writes exactly one row. The lead's ID and
// CreatedAt are assigned here.
func (s *Store) Insert(ctx context.Context, l *Lead) error {
	if err := l.Validate(); err != nil {
		return err
	}
	l.ID = s.newID()
	l.CreatedAt = time.Now().Unix()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, name, email, phone, company, inquiry_type,
		    message, contact_method, best_time, agree, newsletter, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.Email, l.Phone, l.Company, l.InquiryType,
		l.Message, l.ContactMethod, l.BestTime,
		boolInt(l.Agree), boolInt(l.Newsletter), l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("leads: insert: %w", err)
	}
	return nil
}

// Count reports the number of stored leads. Operator surface only.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads`).Scan(&n); err != nil {
		return 0, fmt.Errorf("leads: count: %w", err)
	}
	return n, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
