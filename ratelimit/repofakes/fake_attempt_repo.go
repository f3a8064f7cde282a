package fakeattemptrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/komunitas-dev/go-auth-core/ratelimit"
)

var _ ratelimit.AttemptRepo = (*FakeAttemptRepo)(nil)

type FakeAttemptRepo struct {
	attempts []ratelimit.FailedAttempt
	lock     sync.RWMutex
}

func NewFakeAttemptRepo() *FakeAttemptRepo {
	return &FakeAttemptRepo{}
}

func (ar *FakeAttemptRepo) Append(_ context.Context, attempt ratelimit.FailedAttempt) error {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	ar.attempts = append(ar.attempts, attempt)
	return nil
}

func (ar *FakeAttemptRepo) Window(_ context.Context, operation ratelimit.Operation, identifier string, since time.Time) (int, time.Time, error) {
	ar.lock.RLock()
	defer ar.lock.RUnlock()

	count := 0
	var oldest time.Time
	for _, attempt := range ar.attempts {
		if attempt.Operation != operation || attempt.Identifier != identifier {
			continue
		}
		if attempt.AttemptedAt.Before(since) {
			continue
		}
		count++
		if oldest.IsZero() || attempt.AttemptedAt.Before(oldest) {
			oldest = attempt.AttemptedAt
		}
	}
	return count, oldest, nil
}

func (ar *FakeAttemptRepo) DeleteOlderThan(_ context.Context, cutoff time.Time, limit int) (int, error) {
	ar.lock.Lock()
	defer ar.lock.Unlock()

	sort.Slice(ar.attempts, func(i, j int) bool {
		return ar.attempts[i].AttemptedAt.Before(ar.attempts[j].AttemptedAt)
	})

	deleted := 0
	kept := ar.attempts[:0]
	for _, attempt := range ar.attempts {
		if deleted < limit && attempt.AttemptedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, attempt)
	}
	ar.attempts = kept
	return deleted, nil
}

// Len reports the number of stored attempts (test helper).
func (ar *FakeAttemptRepo) Len() int {
	ar.lock.RLock()
	defer ar.lock.RUnlock()
	return len(ar.attempts)
}
