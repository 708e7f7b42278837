package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"inventra/internal/core/apperror"
)

// IdempotencyStatus represents the state of an idempotent operation.
type IdempotencyStatus string

const (
	IdempotencyStatusPending IdempotencyStatus = "pending"
	IdempotencyStatusDone    IdempotencyStatus = "done"
)

// staleAfter is how long a pending key blocks retries before it is reclaimed.
const staleAfter = time.Minute

// IdempotencyReplay is a stored HTTP response.
type IdempotencyReplay struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// IdempotencyStore keeps the outcome of mutating requests keyed by the
// client-supplied idempotency key, so a retried create does not allocate a
// second receipt or transfer.
type IdempotencyStore struct {
	txManager *TxManager
	ttl       time.Duration
	now       func() time.Time
}

// NewIdempotencyStore creates a new idempotency store.
func NewIdempotencyStore(txManager *TxManager, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{
		txManager: txManager,
		ttl:       ttl,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Acquire claims key for a request. It returns the stored response when the
// request already completed, CONFLICT while another request holds the key, and
// (nil, nil) when the caller now owns the key.
func (s *IdempotencyStore) Acquire(ctx context.Context, key, operation, requestHash string) (*IdempotencyReplay, error) {
	now := s.now()
	q := s.txManager.GetQuerier(ctx)

	tag, err := q.Exec(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, operation, request_hash, status, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $5, $6)
		ON CONFLICT (idempotency_key) DO NOTHING
	`, key, operation, requestHash, IdempotencyStatusPending, now, now.Add(s.ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var (
		storedOp, storedHash string
		status               IdempotencyStatus
		replay               IdempotencyReplay
		updatedAt            time.Time
	)
	err = q.QueryRow(ctx, `
		SELECT operation, request_hash, status, COALESCE(response_status, 0), COALESCE(response_content_type, ''), response, updated_at
		FROM sys_idempotency
		WHERE idempotency_key = $1
	`, key).Scan(&storedOp, &storedHash, &status, &replay.StatusCode, &replay.ContentType, &replay.Body, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// expired and cleaned between the two statements
		return s.Acquire(ctx, key, operation, requestHash)
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}

	if storedOp != operation || storedHash != requestHash {
		return nil, apperror.NewConflict("idempotency key was used for a different request").
			WithDetail("idempotency_key", key)
	}

	if status == IdempotencyStatusDone {
		return &replay, nil
	}

	if now.Sub(updatedAt) > staleAfter {
		tag, err := q.Exec(ctx, `
			UPDATE sys_idempotency SET updated_at = $1
			WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
		`, now, key, IdempotencyStatusPending, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("reclaim stale key: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil, nil
		}
	}

	return nil, apperror.NewConflict("a request with this idempotency key is in progress").
		WithDetail("idempotency_key", key)
}

// Complete stores the response of the request owning key.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, replay IdempotencyReplay) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1, response_status = $2, response_content_type = $3, response = $4, updated_at = $5
		WHERE idempotency_key = $6
	`, IdempotencyStatusDone, replay.StatusCode, replay.ContentType, replay.Body, s.now(), key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release drops a pending key so the request can be retried, used when the
// outcome must not be replayed (server errors).
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2
	`, key, IdempotencyStatusPending)
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired removes expired idempotency records.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.GetQuerier(ctx).Exec(ctx, `
		DELETE FROM sys_idempotency WHERE expires_at < $1
	`, s.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup idempotency keys: %w", err)
	}
	return tag.RowsAffected(), nil
}
