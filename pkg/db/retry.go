package db

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultTxRetries = 3
	defaultTxBackoff = 25 * time.Millisecond
)

// WithTxRetry runs fn like WithTx but re-attempts the whole transaction on
// serialization or deadlock failures. fn must be idempotent: every retry
// replays it against a fresh transaction.
func (c *Client) WithTxRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	attempts := c.txRetries
	if attempts <= 0 {
		attempts = defaultTxRetries
	}
	wait := c.txBackoff
	if wait <= 0 {
		wait = defaultTxBackoff
	}

	backoff := retry.WithMaxRetries(uint64(attempts), retry.NewFibonacci(wait))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.WithTx(ctx, fn)
		if err != nil && IsRetryableTxError(err) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// LockForUpdate adds a row-level lock on postgres. SQLite (used in tests) has
// a single writer and no FOR UPDATE syntax, so the clause is skipped there.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() != "postgres" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
