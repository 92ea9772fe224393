// Package cache holds the redis-backed diagnostic stash for deposit
// submissions. The stash is write-only from the deposit flow's point of
// view: the live state machine never reads it back.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	lastTransactionKey = "deposit:last_tx:%s"     // user id
	submissionKey      = "deposit:submission:%s"  // transaction id
	stashTTL           = 72 * time.Hour
)

// SubmissionStash persists the last transaction id per user and the
// submission blob per transaction under fixed keys for diagnostics.
type SubmissionStash struct {
	rdb *redis.Client
}

// NewSubmissionStash creates a redis-backed stash
func NewSubmissionStash(rdb *redis.Client) *SubmissionStash {
	return &SubmissionStash{rdb: rdb}
}

// StashSubmission stores the submission blob and the user's last
// transaction id. Both writes share one pipeline round trip.
func (s *SubmissionStash) StashSubmission(ctx context.Context, userID, transactionID string, blob []byte) error {
	pipe := s.rdb.Pipeline()
	pipe.Set(ctx, fmt.Sprintf(lastTransactionKey, userID), transactionID, stashTTL)
	pipe.Set(ctx, fmt.Sprintf(submissionKey, transactionID), blob, stashTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stash submission: %w", err)
	}
	return nil
}

// LastSubmission returns the stored blob for a transaction, for support
// tooling only.
func (s *SubmissionStash) LastSubmission(ctx context.Context, transactionID string) ([]byte, error) {
	raw, err := s.rdb.Get(ctx, fmt.Sprintf(submissionKey, transactionID)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("no stashed submission for %s", transactionID)
	}
	return raw, err
}
