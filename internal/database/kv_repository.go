package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// KVRepository stores string values by key inside one namespace.
// Each learner gets its own namespace, so their progress never mixes.
type KVRepository struct {
	db        *sqlx.DB
	namespace string
}

// NewKVRepository creates a repository bound to a namespace
func NewKVRepository(db *sqlx.DB, namespace string) *KVRepository {
	return &KVRepository{db: db, namespace: namespace}
}

// Namespace returns the namespace the repository reads and writes
func (r *KVRepository) Namespace() string {
	return r.namespace
}

// Get returns the value stored under key, and false if there is none
func (r *KVRepository) Get(key string) (string, bool, error) {
	var value string
	query := r.db.Rebind(`SELECT value FROM kv_store WHERE namespace = ? AND key = ?`)
	err := r.db.Get(&value, query, r.namespace, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s/%s: %w", r.namespace, key, err)
	}
	return value, true, nil
}

// Set creates or overwrites the value stored under key
func (r *KVRepository) Set(key, value string) error {
	query := r.db.Rebind(`
		INSERT INTO kv_store (namespace, key, value, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (namespace, key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`)
	if _, err := r.db.Exec(query, r.namespace, key, value); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", r.namespace, key, err)
	}
	return nil
}

// Keys lists the keys stored in the namespace
func (r *KVRepository) Keys() ([]string, error) {
	var keys []string
	query := r.db.Rebind(`SELECT key FROM kv_store WHERE namespace = ? ORDER BY key`)
	if err := r.db.Select(&keys, query, r.namespace); err != nil {
		return nil, fmt.Errorf("failed to list keys of %s: %w", r.namespace, err)
	}
	return keys, nil
}
