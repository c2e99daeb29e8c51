package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/rcbilson/dailymenu/sqlite"
)

type SQLiteStore struct {
	db       *sql.DB
	location string
}

func NewSQLiteStore(dbfile string) (*SQLiteStore, error) {
	db, err := sqlite.NewFromFile(dbfile, schema)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, location: dbfile}, nil
}

func NewTestSQLiteStore() (*SQLiteStore, error) {
	db, err := sqlite.NewFromMemory(schema)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db, location: ":memory:"}, nil
}

func (s *SQLiteStore) Close() {
	s.db.Close()
}

func (s *SQLiteStore) Get(ctx context.Context, url, date string) (string, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM menu_cache WHERE menu_url = ? AND date = ?", url, date).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return payload, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, url, date, payload string) error {
	if !json.Valid([]byte(payload)) {
		return ErrInvalidPayload
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO menu_cache (menu_url, date, payload) VALUES (?, ?, ?)",
		url, date, payload)
	return err
}

func (s *SQLiteStore) PurgeOlderThan(ctx context.Context, date string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM menu_cache WHERE date < ?", date)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM menu_cache")
	return err
}

func (s *SQLiteStore) Stats(ctx context.Context, today string) (Stats, error) {
	stats := Stats{Backend: "sqlite", Location: s.location}
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(CASE WHEN date = ? THEN 1 END) FROM menu_cache", today).
		Scan(&stats.TotalEntries, &stats.TodayEntries)
	return stats, err
}

func (s *SQLiteStore) RecordUsage(ctx context.Context, usage Usage) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO usage (url, lengthIn, lengthOut, tokensIn, tokensOut) VALUES (?, ?, ?, ?, ?)",
		usage.Url, usage.LengthIn, usage.LengthOut, usage.TokensIn, usage.TokensOut)
	return err
}

// TotalUsage sums the token counts recorded so far.
func (s *SQLiteStore) TotalUsage(ctx context.Context) (tokensIn, tokensOut int, err error) {
	err = s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(tokensIn), 0), COALESCE(SUM(tokensOut), 0) FROM usage").
		Scan(&tokensIn, &tokensOut)
	return
}
