package rules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"time"
)

// DocumentStore persists the raw rule document. Implementations must be
// bounded: Save refuses empty or oversized payloads before touching the
// backing store, and Load never returns more than MaxDocumentSize bytes.
type DocumentStore interface {
	// Load returns the stored document, or ErrStoreMiss if nothing has been
	// persisted yet.
	Load(ctx context.Context) ([]byte, error)

	// Save writes the document to the single store slot. Exactly one write
	// is attempted per call; batching and wear-levelling are the backing
	// store's concern.
	Save(ctx context.Context, data []byte) error
}

// storeSlotName is the fixed component name whose hash keys the document slot.
const storeSlotName = "rules"

// storeSlotKey returns the deterministic slot key: the FNV-1 32-bit hash of
// the component name, matching the object key scheme used for entities.
func storeSlotKey() int64 {
	h := fnv.New32()
	h.Write([]byte(storeSlotName)) //nolint:errcheck // hash.Hash never errors
	return int64(h.Sum32())
}

// SQLiteStore implements DocumentStore against a single-row SQLite table.
//
// The payload length is recorded alongside the blob and re-applied on read,
// so the parser is always handed exactly the bytes that were written, never
// trailing storage content.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite-backed document store.
// The rule_documents table is created by migrations.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save writes the document into the slot, replacing any previous value.
func (s *SQLiteStore) Save(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyDocument
	}
	if len(data) > MaxDocumentSize {
		return fmt.Errorf("%w: %d bytes (max %d)",
			ErrDocumentTooLarge, len(data), MaxDocumentSize)
	}

	query := `
		INSERT INTO rule_documents (slot, payload, size, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			payload = excluded.payload,
			size = excluded.size,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		storeSlotKey(), data, len(data),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing rule document: %w", err)
	}
	return nil
}

// Load reads the stored document from the slot.
func (s *SQLiteStore) Load(ctx context.Context) ([]byte, error) {
	query := `SELECT payload, size FROM rule_documents WHERE slot = ?`

	var payload []byte
	var size int
	err := s.db.QueryRowContext(ctx, query, storeSlotKey()).Scan(&payload, &size)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStoreMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading rule document: %w", err)
	}

	// Defend against a row written by something other than Save.
	if size < 0 || size > len(payload) {
		size = len(payload)
	}
	payload = payload[:size]
	if len(payload) > MaxDocumentSize {
		return nil, fmt.Errorf("%w: stored document is %d bytes",
			ErrDocumentTooLarge, len(payload))
	}
	return payload, nil
}
