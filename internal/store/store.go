// Package store records privacy-conscious visitor metrics in SQLite.
// Raw IP addresses are never stored, only a salted hash.
package store

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Retention is how long visit records are kept.
const Retention = 365 * 24 * time.Hour

const schema = `
CREATE TABLE IF NOT EXISTS visitors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,
	user_agent TEXT,
	path TEXT,
	timestamp DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_visitors_timestamp ON visitors(timestamp);
`

type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

type Stats struct {
	TotalVisitors    int64   `json:"total_visitors"`
	UniqueVisitors   int64   `json:"unique_visitors"`
	VisitorsToday    int64   `json:"visitors_today"`
	VisitorsThisWeek int64   `json:"visitors_this_week"`
	RecentVisitors   []Visit `json:"recent_visitors"`
}

type Store struct {
	db   *sql.DB
	salt string
}

// Open opens (or creates) the database at path. salt is mixed into every
// IP hash; a fresh salt per process makes hashes unlinkable across restarts.
func Open(path, salt string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, salt: salt}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// HashIP returns the truncated salted hash stored in place of ip.
func (s *Store) HashIP(ip string) string {
	hash := sha256.New()
	hash.Write([]byte(ip + s.salt))
	return hex.EncodeToString(hash.Sum(nil))[:16]
}

func (s *Store) RecordVisit(ip, userAgent, path string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO visitors (hashed_ip, user_agent, path, timestamp)
		VALUES (?, ?, ?, ?)
	`, s.HashIP(ip), userAgent, path, at.UTC())
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// Stats aggregates visits relative to now.
func (s *Store) Stats(now time.Time) (*Stats, error) {
	now = now.UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats := &Stats{}

	err := s.db.QueryRow("SELECT COUNT(*), COUNT(DISTINCT hashed_ip) FROM visitors").
		Scan(&stats.TotalVisitors, &stats.UniqueVisitors)
	if err != nil {
		return nil, fmt.Errorf("count visitors: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM visitors WHERE timestamp >= ?", startOfDay).
		Scan(&stats.VisitorsToday)
	if err != nil {
		return nil, fmt.Errorf("count today: %w", err)
	}

	err = s.db.QueryRow("SELECT COUNT(*) FROM visitors WHERE timestamp >= ?", now.Add(-7*24*time.Hour)).
		Scan(&stats.VisitorsThisWeek)
	if err != nil {
		return nil, fmt.Errorf("count week: %w", err)
	}

	stats.RecentVisitors, err = s.RecentVisits(50)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) RecentVisits(limit int) ([]Visit, error) {
	rows, err := s.db.Query(`
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), timestamp
		FROM visitors
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &v.Timestamp); err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// PurgeBefore deletes visits older than cutoff and returns how many went.
func (s *Store) PurgeBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM visitors WHERE timestamp < ?", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge visits: %w", err)
	}
	return result.RowsAffected()
}
