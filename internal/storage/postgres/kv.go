package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/makeup-store/internal/domain/cart"
)

const (
	readBlobSQL = `SELECT blob FROM cart_blobs WHERE key = $1`

	writeBlobSQL = `INSERT INTO cart_blobs (key, blob, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET blob = EXCLUDED.blob, updated_at = now()`
)

var _ cart.Store = (*KVStore)(nil)

// KVStore implements cart.Store on a single-table key-value schema. The blob
// content is opaque here; its format belongs to the cart engine. Concurrent
// writers to the same key overwrite each other (last writer wins), which is
// the accepted consistency model for carts.
type KVStore struct {
	pool *pgxpool.Pool
}

// NewKVStore returns a KVStore that uses the given pool.
func NewKVStore(pool *pgxpool.Pool) *KVStore {
	return &KVStore{pool: pool}
}

// Read returns the blob stored under key, or cart.ErrBlobNotFound.
func (s *KVStore) Read(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := s.pool.QueryRow(ctx, readBlobSQL, key).Scan(&blob)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrBlobNotFound
		}
		return nil, fmt.Errorf("reading blob %q: %w", key, err)
	}
	return blob, nil
}

// Write upserts blob under key.
func (s *KVStore) Write(ctx context.Context, key string, blob []byte) error {
	if _, err := s.pool.Exec(ctx, writeBlobSQL, key, blob); err != nil {
		return fmt.Errorf("writing blob %q: %w", key, err)
	}
	return nil
}
