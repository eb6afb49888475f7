// Package sqlite provides the content record store backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

// Store implements ports.RecordStore and ports.ProfileStore over SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL mode for concurrent readers alongside the single writer.
	dsn := path + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS content_records (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		style TEXT NOT NULL DEFAULT '',
		tags_json TEXT NOT NULL DEFAULT '[]',
		saved INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_owner ON content_records(owner_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_records_kind ON content_records(owner_id, kind);

	CREATE TABLE IF NOT EXISTS profiles (
		owner_id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		about TEXT NOT NULL DEFAULT '',
		categories_json TEXT NOT NULL DEFAULT '[]',
		tone TEXT NOT NULL DEFAULT ''
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Create inserts a record, assigning an id and timestamp when absent.
func (s *Store) Create(ctx context.Context, rec *domain.ContentRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	tags, err := json.Marshal(rec.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query := `
		INSERT INTO content_records (id, owner_id, kind, payload_json, style, tags_json, saved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.OwnerID, string(rec.Kind), string(payload),
		rec.Style, string(tags), boolToInt(rec.Saved), rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// ByOwner lists an owner's records, newest first, applying the query filters.
func (s *Store) ByOwner(ctx context.Context, ownerID string, q ports.RecordQuery) ([]domain.ContentRecord, error) {
	query := `
		SELECT id, owner_id, kind, payload_json, style, tags_json, saved, created_at
		FROM content_records WHERE owner_id = ?`
	args := []any{ownerID}

	if q.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(q.Kind))
	}
	if q.SavedOnly {
		query += ` AND saved = 1`
	}
	if !q.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, q.Since.Unix())
	}
	if !q.Until.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, q.Until.Unix())
	}
	query += ` ORDER BY created_at DESC`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.ContentRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		// Tag filtering happens here rather than in SQL: tags are stored
		// as a JSON array.
		if q.Tag != "" && !hasTag(rec.Tags, q.Tag) {
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// MarkSaved flips the saved flag.
func (s *Store) MarkSaved(ctx context.Context, id string, saved bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE content_records SET saved = ? WHERE id = ?`, boolToInt(saved), id)
	if err != nil {
		return fmt.Errorf("update saved flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// Profile returns the owner's profile, or nil if none exists.
func (s *Store) Profile(ctx context.Context, ownerID string) (*domain.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT owner_id, name, about, categories_json, tone FROM profiles WHERE owner_id = ?`, ownerID)

	var p domain.Profile
	var categories string
	err := row.Scan(&p.OwnerID, &p.Name, &p.About, &categories, &p.Tone)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return nil, fmt.Errorf("unmarshal categories: %w", err)
	}
	return &p, nil
}

// SaveProfile upserts the owner's profile.
func (s *Store) SaveProfile(ctx context.Context, p *domain.Profile) error {
	categories, err := json.Marshal(p.Categories)
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	query := `
		INSERT INTO profiles (owner_id, name, about, categories_json, tone)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			name = excluded.name,
			about = excluded.about,
			categories_json = excluded.categories_json,
			tone = excluded.tone`
	if _, err := s.db.ExecContext(ctx, query, p.OwnerID, p.Name, p.About, string(categories), p.Tone); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func scanRecord(rows *sql.Rows) (domain.ContentRecord, error) {
	var rec domain.ContentRecord
	var kind, payload, tags string
	var saved int
	var createdAt int64

	if err := rows.Scan(&rec.ID, &rec.OwnerID, &kind, &payload, &rec.Style, &tags, &saved, &createdAt); err != nil {
		return rec, fmt.Errorf("scan record row: %w", err)
	}

	rec.Kind = domain.ContentKind(kind)
	rec.Saved = saved != 0
	rec.CreatedAt = time.Unix(createdAt, 0)
	if err := json.Unmarshal([]byte(payload), &rec.Payload); err != nil {
		return rec, fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &rec.Tags); err != nil {
		return rec, fmt.Errorf("unmarshal tags: %w", err)
	}
	return rec, nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
