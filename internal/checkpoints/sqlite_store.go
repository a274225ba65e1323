package checkpoints

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/itinerai/itinerai/internal/graph"
)

// SQLiteStore persists checkpoints to SQLite. Suitable for single-process
// production use with durability across restarts.
type SQLiteStore[T graph.GraphState[T]] struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) the checkpoint database at path.
func NewSQLiteStore[T graph.GraphState[T]](path string) (*SQLiteStore[T], error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	// SQLite handles one writer at a time; a single pooled connection keeps
	// writes ordered and avoids SQLITE_BUSY under concurrent threads.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			graph_id TEXT NOT NULL,
			thread_id TEXT NOT NULL,
			node_id TEXT NOT NULL,
			status TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (graph_id, thread_id)
		)
	`); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create table")
	}

	return &SQLiteStore[T]{db: db}, nil
}

// ErrStoreClosed is returned for operations on a closed store.
var ErrStoreClosed = errors.New("checkpoint store is closed")

func (s *SQLiteStore[T]) Save(ctx context.Context, checkpoint graph.Checkpoint[T]) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	checkpoint.Meta.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(checkpoint)
	if err != nil {
		return errors.Wrap(err, "marshal checkpoint")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (graph_id, thread_id, node_id, status, updated_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(graph_id, thread_id) DO UPDATE SET
			node_id = excluded.node_id,
			status = excluded.status,
			updated_at = excluded.updated_at,
			data = excluded.data
	`, checkpoint.Key.GraphID, checkpoint.Key.ThreadID, checkpoint.NodeID,
		string(checkpoint.Meta.Status), checkpoint.Meta.UpdatedAt.Format(time.RFC3339Nano), data)
	if err != nil {
		return errors.Wrap(err, "save checkpoint")
	}
	return nil
}

func (s *SQLiteStore[T]) Load(ctx context.Context, key graph.CheckpointKey) (*graph.Checkpoint[T], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM checkpoints WHERE graph_id = ? AND thread_id = ?
	`, key.GraphID, key.ThreadID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(graph.ErrCheckpointNotFound, "thread %s", key.ThreadID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "load checkpoint")
	}

	var cp graph.Checkpoint[T]
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, errors.Wrap(err, "unmarshal checkpoint")
	}
	return &cp, nil
}

func (s *SQLiteStore[T]) Delete(ctx context.Context, key graph.CheckpointKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM checkpoints WHERE graph_id = ? AND thread_id = ?
	`, key.GraphID, key.ThreadID); err != nil {
		return errors.Wrap(err, "delete checkpoint")
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
