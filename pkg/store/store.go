// Package store manages the SQLite mailbox for versionmail.
//
// SQLite in WAL mode serves as the transport between replicas: a sender
// appends (snapshot, payload) messages addressed to each recipient, and a
// receiver reads everything after its cursor. The store also holds each
// replica's latest payload and snapshot so short-lived CLI invocations can
// rebuild their versioned data. Snapshots are stored as JSON text.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daviddao/versionmail/pkg/model"
	"github.com/daviddao/versionmail/pkg/vclock"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a replica is not registered.
var ErrNotFound = errors.New("not found")

// Store manages all SQLite operations with WAL mode for concurrent access.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database and initializes the schema.
func New(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(60000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// retryOnContention wraps retryOp from retry.go with the default config.
func retryOnContention(fn func() error) error {
	return retryOp(defaultRetryConfig, fn)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS replicas (
		id         INTEGER PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		payload    TEXT NOT NULL DEFAULT '',
		vector     TEXT NOT NULL,
		registered TEXT NOT NULL,
		last_seen  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		from_id    INTEGER NOT NULL REFERENCES replicas(id),
		to_id      INTEGER NOT NULL,
		vector     TEXT NOT NULL,
		payload    TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_messages_to ON messages(to_id, seq);

	CREATE TABLE IF NOT EXISTS cursors (
		replica_id INTEGER PRIMARY KEY REFERENCES replicas(id),
		since_seq  INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ---------------------------------------------------------------------------
// Replicas
// ---------------------------------------------------------------------------

// RegisterReplica creates a replica holding payload with a vector of
// {id: 0}, or refreshes last_seen if it already exists. Idempotent: an
// existing replica keeps its payload and vector.
func (s *Store) RegisterReplica(id vclock.ReplicaID, name, payload string) (*model.Replica, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	vec, err := encodeVector(vclock.Snapshot{id: 0})
	if err != nil {
		return nil, err
	}
	err = retryOnContention(func() error {
		_, err := s.db.Exec(
			`INSERT INTO replicas (id, name, payload, vector, registered, last_seen)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET last_seen = excluded.last_seen`,
			int64(id), name, payload, vec, now, now,
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetReplica(id)
}

// GetReplica retrieves a replica by id. Returns ErrNotFound if it is not
// registered.
func (s *Store) GetReplica(id vclock.ReplicaID) (*model.Replica, error) {
	row := s.db.QueryRow(
		`SELECT id, name, payload, vector, registered, last_seen FROM replicas WHERE id = ?`, int64(id),
	)
	r, err := scanReplica(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("replica %d: %w", id, ErrNotFound)
	}
	return r, err
}

// SaveReplica persists the replica's payload and vector and bumps last_seen.
func (s *Store) SaveReplica(r *model.Replica) error {
	vec, err := encodeVector(r.Vector)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	err = retryOnContention(func() error {
		_, err := s.db.Exec(
			`UPDATE replicas SET payload = ?, vector = ?, last_seen = ? WHERE id = ?`,
			r.Payload, vec, now.Format(time.RFC3339Nano), int64(r.ID),
		)
		return err
	})
	if err == nil {
		r.LastSeen = now
	}
	return err
}

// SaveReceived persists the replica's state together with its recv cursor in
// one transaction, so a crash never applies a message twice.
func (s *Store) SaveReceived(r *model.Replica, sinceSeq int64) error {
	vec, err := encodeVector(r.Vector)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	err = retryOnContention(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

		if _, err := tx.Exec(
			`UPDATE replicas SET payload = ?, vector = ?, last_seen = ? WHERE id = ?`,
			r.Payload, vec, now.Format(time.RFC3339Nano), int64(r.ID),
		); err != nil {
			return err
		}
		if err := upsertCursor(tx, r.ID, sinceSeq); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err == nil {
		r.LastSeen = now
	}
	return err
}

// ListReplicas returns all registered replicas ordered by id.
func (s *Store) ListReplicas() ([]model.Replica, error) {
	rows, err := s.db.Query(
		`SELECT id, name, payload, vector, registered, last_seen FROM replicas ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var replicas []model.Replica
	for rows.Next() {
		r, err := scanReplica(rows)
		if err != nil {
			return nil, err
		}
		replicas = append(replicas, *r)
	}
	return replicas, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReplica(row scanner) (*model.Replica, error) {
	var (
		r                  model.Replica
		id                 int64
		vec, regStr, lsStr string
	)
	if err := row.Scan(&id, &r.Name, &r.Payload, &vec, &regStr, &lsStr); err != nil {
		return nil, err
	}
	r.ID = vclock.ReplicaID(id)
	var err error
	if r.Vector, err = decodeVector(vec); err != nil {
		return nil, fmt.Errorf("decode vector for replica %d: %w", r.ID, err)
	}
	if r.Registered, err = time.Parse(time.RFC3339Nano, regStr); err != nil {
		return nil, fmt.Errorf("parse registered time for replica %d: %w", r.ID, err)
	}
	if r.LastSeen, err = time.Parse(time.RFC3339Nano, lsStr); err != nil {
		return nil, fmt.Errorf("parse last_seen time for replica %d: %w", r.ID, err)
	}
	return &r, nil
}

// ---------------------------------------------------------------------------
// Cursors
// ---------------------------------------------------------------------------

// GetCursor returns the seq of the last message a replica consumed (0 if unset).
func (s *Store) GetCursor(id vclock.ReplicaID) int64 {
	var seq int64
	if err := s.db.QueryRow(
		`SELECT since_seq FROM cursors WHERE replica_id = ?`, int64(id),
	).Scan(&seq); err != nil {
		return 0
	}
	return seq
}

// upsertCursor moves a replica's recv cursor to sinceSeq.
func upsertCursor(tx *sql.Tx, id vclock.ReplicaID, sinceSeq int64) error {
	_, err := tx.Exec(
		`INSERT INTO cursors (replica_id, since_seq) VALUES (?, ?)
		 ON CONFLICT(replica_id) DO UPDATE SET since_seq = excluded.since_seq`,
		int64(id), sinceSeq,
	)
	return err
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// InsertMessage appends a message to the log. A missing ID is filled with a
// fresh UUID. On success m.ID and m.Seq are set and the seq is returned.
func (s *Store) InsertMessage(m *model.Message) (int64, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	vec, err := encodeVector(m.Vector)
	if err != nil {
		return 0, err
	}
	var seq int64
	err = retryOnContention(func() error {
		res, err := s.db.Exec(
			`INSERT INTO messages (id, from_id, to_id, vector, payload, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, int64(m.From), int64(m.To), vec, m.Payload,
			m.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return err
		}
		seq, err = res.LastInsertId()
		return err
	})
	if err == nil {
		m.Seq = seq
	}
	return seq, err
}

// ListMessagesFor returns messages addressed to id with seq > sinceSeq, in
// delivery order.
func (s *Store) ListMessagesFor(id vclock.ReplicaID, sinceSeq int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT seq, id, from_id, to_id, vector, payload, created_at
		 FROM messages WHERE to_id = ? AND seq > ?
		 ORDER BY seq ASC LIMIT ?`,
		int64(id), sinceSeq, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// ListMessages returns every message with seq > sinceSeq, in delivery order.
func (s *Store) ListMessages(sinceSeq int64, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(
		`SELECT seq, id, from_id, to_id, vector, payload, created_at
		 FROM messages WHERE seq > ?
		 ORDER BY seq ASC LIMIT ?`,
		sinceSeq, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// CountMessages returns the total number of messages in the log.
func (s *Store) CountMessages() int64 {
	var count int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0
	}
	return count
}

// CountPending returns how many messages addressed to id have seq > sinceSeq.
func (s *Store) CountPending(id vclock.ReplicaID, sinceSeq int64) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE to_id = ? AND seq > ?`,
		int64(id), sinceSeq,
	).Scan(&count)
	return count, err
}

func scanMessages(rows *sql.Rows) ([]model.Message, error) {
	var msgs []model.Message
	for rows.Next() {
		var (
			m               model.Message
			from, to        int64
			vec, createdStr string
		)
		if err := rows.Scan(&m.Seq, &m.ID, &from, &to, &vec, &m.Payload, &createdStr); err != nil {
			return nil, err
		}
		m.From, m.To = vclock.ReplicaID(from), vclock.ReplicaID(to)
		var err error
		if m.Vector, err = decodeVector(vec); err != nil {
			return nil, fmt.Errorf("decode vector for message %s: %w", m.ID, err)
		}
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr); err != nil {
			return nil, fmt.Errorf("parse created_at time for message %s: %w", m.ID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func encodeVector(v vclock.Snapshot) (string, error) {
	if v == nil {
		v = vclock.Snapshot{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode vector: %w", err)
	}
	return string(b), nil
}

func decodeVector(s string) (vclock.Snapshot, error) {
	v := vclock.Snapshot{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	return v, nil
}
