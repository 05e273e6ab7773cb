// Package sqlstore persists macro registers in a SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dshills/modalkeys/internal/input/key"
	"github.com/dshills/modalkeys/internal/input/macro"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("macro store is closed")

const (
	metaLastPlayed  = "last_played"
	metaLastCommand = "last_command"
)

// Store implements macro.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ macro.Store = (*Store)(nil)

// New opens (or creates) the database at dbPath.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open macro database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize macro database: %w", err)
	}
	return store, nil
}

// NewWithDB creates a store using an existing database connection.
func NewWithDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize macro tables: %w", err)
	}
	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS macro_registers (
			name TEXT PRIMARY KEY,
			keys TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS macro_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save implements macro.Store.
func (s *Store) Save(recorder *macro.Recorder) error {
	return s.SaveContext(context.Background(), recorder)
}

// Load implements macro.Store.
func (s *Store) Load(recorder *macro.Recorder) error {
	return s.LoadContext(context.Background(), recorder)
}

// SaveContext replaces the stored registers with the recorder's.
func (s *Store) SaveContext(ctx context.Context, recorder *macro.Recorder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM macro_registers"); err != nil {
		return fmt.Errorf("failed to clear registers: %w", err)
	}

	now := time.Now().Unix()
	for _, reg := range recorder.ListRegisters() {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO macro_registers (name, keys, updated_at) VALUES (?, ?, ?)",
			string(reg), recorder.Get(reg).String(), now,
		)
		if err != nil {
			return fmt.Errorf("failed to save register %c: %w", reg, err)
		}
	}

	lastPlayed := ""
	if r := recorder.LastPlayed(); r != 0 {
		lastPlayed = string(r)
	}
	meta := map[string]string{
		metaLastPlayed:  lastPlayed,
		metaLastCommand: recorder.LastCommand(),
	}
	for k, v := range meta {
		_, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO macro_meta (key, value) VALUES (?, ?)", k, v)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit macros: %w", err)
	}
	return nil
}

// LoadContext replaces the recorder's registers with the stored ones.
func (s *Store) LoadContext(ctx context.Context, recorder *macro.Recorder) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, "SELECT name, keys FROM macro_registers")
	if err != nil {
		return fmt.Errorf("failed to query registers: %w", err)
	}
	defer rows.Close()

	registers := make(map[rune]key.Sequence)
	for rows.Next() {
		var name, keys string
		if err := rows.Scan(&name, &keys); err != nil {
			return fmt.Errorf("failed to scan register: %w", err)
		}
		reg := singleRegister(name)
		if reg == 0 {
			continue
		}
		events, err := key.ParseSequence(keys)
		if err != nil {
			return fmt.Errorf("register %c: %w", reg, err)
		}
		registers[reg] = events
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read registers: %w", err)
	}

	meta, err := s.meta(ctx)
	if err != nil {
		return err
	}

	recorder.SetAllRegisters(registers)
	if reg := singleRegister(meta[metaLastPlayed]); reg != 0 {
		recorder.SetLastPlayed(reg)
	}
	recorder.SetLastCommand(meta[metaLastCommand])
	return nil
}

func (s *Store) meta(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM macro_meta")
	if err != nil {
		return nil, fmt.Errorf("failed to query macro metadata: %w", err)
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan macro metadata: %w", err)
		}
		meta[k] = v
	}
	return meta, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func singleRegister(s string) rune {
	rs := []rune(s)
	if len(rs) != 1 || !macro.IsValidRegister(rs[0]) {
		return 0
	}
	return rs[0]
}
