package remote

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"salat-go/internal/salat"
)

// PostgresSchema creates the shared tracking table. Rows are addressed by
// (user_id, date); every upsert rewrites all seven flags.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS salat_tracking (
	user_id    TEXT        NOT NULL,
	date       DATE        NOT NULL,
	fajr       BOOLEAN     NOT NULL DEFAULT FALSE,
	dhuhr      BOOLEAN     NOT NULL DEFAULT FALSE,
	asr        BOOLEAN     NOT NULL DEFAULT FALSE,
	maghrib    BOOLEAN     NOT NULL DEFAULT FALSE,
	isha       BOOLEAN     NOT NULL DEFAULT FALSE,
	taraweeh   BOOLEAN     NOT NULL DEFAULT FALSE,
	tahajjud   BOOLEAN     NOT NULL DEFAULT FALSE,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (user_id, date)
)`

const upsertTrackingSQL = `
INSERT INTO salat_tracking (user_id, date, fajr, dhuhr, asr, maghrib, isha, taraweeh, tahajjud, updated_at)
VALUES (:user_id, :date, :fajr, :dhuhr, :asr, :maghrib, :isha, :taraweeh, :tahajjud, now())
ON CONFLICT (user_id, date) DO UPDATE SET
	fajr = EXCLUDED.fajr,
	dhuhr = EXCLUDED.dhuhr,
	asr = EXCLUDED.asr,
	maghrib = EXCLUDED.maghrib,
	isha = EXCLUDED.isha,
	taraweeh = EXCLUDED.taraweeh,
	tahajjud = EXCLUDED.tahajjud,
	updated_at = now()`

// trackingRow is the salat_tracking row shape.
type trackingRow struct {
	UserID   string `db:"user_id"`
	Date     string `db:"date"`
	Fajr     bool   `db:"fajr"`
	Dhuhr    bool   `db:"dhuhr"`
	Asr      bool   `db:"asr"`
	Maghrib  bool   `db:"maghrib"`
	Isha     bool   `db:"isha"`
	Taraweeh bool   `db:"taraweeh"`
	Tahajjud bool   `db:"tahajjud"`
}

func rowFromRecord(userID string, r salat.DayRecord) trackingRow {
	return trackingRow{
		UserID:   userID,
		Date:     r.Date.String(),
		Fajr:     r.Fajr,
		Dhuhr:    r.Dhuhr,
		Asr:      r.Asr,
		Maghrib:  r.Maghrib,
		Isha:     r.Isha,
		Taraweeh: r.Taraweeh,
		Tahajjud: r.Tahajjud,
	}
}

func (row trackingRow) record() (salat.DayRecord, error) {
	// DATE columns may come back as a full timestamp string.
	date, err := salat.ParseDate(row.Date[:min(len(row.Date), 10)])
	if err != nil {
		return salat.DayRecord{}, err
	}
	return salat.DayRecord{
		Date:     date,
		Fajr:     row.Fajr,
		Dhuhr:    row.Dhuhr,
		Asr:      row.Asr,
		Maghrib:  row.Maghrib,
		Isha:     row.Isha,
		Taraweeh: row.Taraweeh,
		Tahajjud: row.Tahajjud,
	}, nil
}

// PostgresStore is a RemoteStore over a shared PostgreSQL table.
type PostgresStore struct {
	db *sqlx.DB
}

var _ salat.RemoteStore = (*PostgresStore)(nil)

// NewPostgresStore opens a connection pool for dsn. No connection is made
// until the first query.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing pool.
func NewPostgresStoreFromDB(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// selectQuery builds the range query. Zero bounds add no condition.
func selectQuery(userID string, from, to salat.Date) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT user_id, to_char(date, 'YYYY-MM-DD') AS date, fajr, dhuhr, asr, maghrib, isha, taraweeh, tahajjud
FROM salat_tracking
WHERE user_id = $1`)
	args := []any{userID}
	if !from.IsZero() {
		args = append(args, from.String())
		fmt.Fprintf(&b, " AND date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to.String())
		fmt.Fprintf(&b, " AND date <= $%d", len(args))
	}
	b.WriteString("\nORDER BY date ASC")
	return b.String(), args
}

func (s *PostgresStore) Select(ctx context.Context, userID string, from, to salat.Date) ([]salat.DayRecord, error) {
	query, args := selectQuery(userID, from, to)
	var rows []trackingRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("selecting records: %w", err)
	}

	out := make([]salat.DayRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, fmt.Errorf("decoding row: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Upsert writes records in a single transaction.
func (s *PostgresStore) Upsert(ctx context.Context, userID string, records []salat.DayRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, upsertTrackingSQL)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rowFromRecord(userID, rec)); err != nil {
			return fmt.Errorf("upserting %s: %w", rec.Date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// ValidateSetup pings the server and creates the table if it is missing.
func (s *PostgresStore) ValidateSetup(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, PostgresSchema); err != nil {
		return fmt.Errorf("creating salat_tracking: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
