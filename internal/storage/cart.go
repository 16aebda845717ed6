package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
)

// CartKV is the durable key/value collaborator behind the shopping cart.
// The cart service treats the value as an opaque serialized blob and always
// rewrites it in full; concurrent writers race and the last write wins.
type CartKV interface {
	// Get returns the stored blob, or found == false if the key is empty.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type cartKVRepository struct {
	db *sql.DB
}

func NewCartKVRepository(db *sql.DB) CartKV {
	return &cartKVRepository{db: db}
}

func (r *cartKVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	row := r.db.QueryRowContext(ctx,
		"SELECT payload FROM cart_sessions WHERE session_key = $1", key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	if value == "" {
		return "", false, nil
	}
	return value, true, nil
}

func (r *cartKVRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO cart_sessions (session_key, payload, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (session_key) DO UPDATE SET payload = $2, updated_at = NOW()`,
		key, value)
	return err
}

func (r *cartKVRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM cart_sessions WHERE session_key = $1", key)
	return err
}

// MemoryCartKV is an in-process CartKV, used in tests and as a fallback when
// carts do not need to survive a restart.
type MemoryCartKV struct {
	mu    sync.Mutex
	items map[string]string
}

func NewMemoryCartKV() *MemoryCartKV {
	return &MemoryCartKV{items: make(map[string]string)}
}

func (m *MemoryCartKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.items[key]
	if !ok || value == "" {
		return "", false, nil
	}
	return value, true, nil
}

func (m *MemoryCartKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryCartKV) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
