package audit_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/komunitas-dev/go-auth-core/audit"
	fakeeventrepo "github.com/komunitas-dev/go-auth-core/audit/repofakes"
	"github.com/komunitas-dev/go-auth-core/ratelimit"
	fakeattemptrepo "github.com/komunitas-dev/go-auth-core/ratelimit/repofakes"
	"github.com/stretchr/testify/require"
)

type sweeperFixture struct {
	events   *fakeeventrepo.FakeEventRepo
	attempts *fakeattemptrepo.FakeAttemptRepo
	now      time.Time
	swept    map[string]int
}

func setupSweeperFixture(t *testing.T, options ...audit.SweeperOption) (*sweeperFixture, *audit.Sweeper) {
	t.Helper()

	f := &sweeperFixture{
		events:   fakeeventrepo.NewFakeEventRepo(),
		attempts: fakeattemptrepo.NewFakeAttemptRepo(),
		now:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		swept:    make(map[string]int),
	}
	opts := append([]audit.SweeperOption{
		audit.WithSweeperNowTime(func() time.Time { return f.now }),
		audit.WithSweepObserver(func(kind string, deleted int) { f.swept[kind] += deleted }),
	}, options...)
	sweeper, err := audit.NewSweeper(f.events, f.attempts, opts...)
	require.NoError(t, err)
	return f, sweeper
}

func (f *sweeperFixture) seedEvents(t *testing.T, n int, createdAt time.Time) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		require.NoError(t, f.events.Append(ctx, audit.Event{
			ID:        fmt.Sprintf("event-%d-%d", createdAt.Unix(), i),
			Type:      audit.EventLoginFailed,
			CreatedAt: createdAt,
		}))
	}
}

func TestSweeper_SweepEvents(t *testing.T) {
	t.Run("removes only records past retention", func(t *testing.T) {
		f, sweeper := setupSweeperFixture(t)

		f.seedEvents(t, 3, f.now.Add(-31*24*time.Hour)) // past 30d retention
		f.seedEvents(t, 2, f.now.Add(-24*time.Hour))    // recent, kept

		deleted, err := sweeper.SweepEvents(context.Background())
		require.NoError(t, err)
		require.Equal(t, 3, deleted)
		require.Len(t, f.events.Events(), 2)
		require.Equal(t, 3, f.swept["events"])
	})

	t.Run("chains batches until the backlog is drained", func(t *testing.T) {
		f, sweeper := setupSweeperFixture(t, audit.WithBatchSize(10))

		f.seedEvents(t, 35, f.now.Add(-31*24*time.Hour))

		deleted, err := sweeper.SweepEvents(context.Background())
		require.NoError(t, err)
		require.Equal(t, 35, deleted)
		require.Empty(t, f.events.Events())
	})

	t.Run("nothing to sweep is not an error", func(t *testing.T) {
		f, sweeper := setupSweeperFixture(t)

		deleted, err := sweeper.SweepEvents(context.Background())
		require.NoError(t, err)
		require.Equal(t, 0, deleted)
		require.Equal(t, 0, f.swept["events"])
	})
}

func TestSweeper_SweepAttempts(t *testing.T) {
	f, sweeper := setupSweeperFixture(t)
	ctx := context.Background()

	stale := f.now.Add(-8 * 24 * time.Hour) // past 7d retention
	fresh := f.now.Add(-time.Hour)
	for i, attemptedAt := range []time.Time{stale, stale, fresh} {
		require.NoError(t, f.attempts.Append(ctx, ratelimit.FailedAttempt{
			ID:          fmt.Sprintf("attempt-%d", i),
			Operation:   ratelimit.OperationLogin,
			Identifier:  "maria",
			Reason:      ratelimit.ReasonWrongPassword,
			AttemptedAt: attemptedAt,
		}))
	}

	deleted, err := sweeper.SweepAttempts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, deleted)
	require.Equal(t, 1, f.attempts.Len())
	require.Equal(t, 2, f.swept["attempts"])
}

func TestNewSweeper_Validation(t *testing.T) {
	events := fakeeventrepo.NewFakeEventRepo()
	attempts := fakeattemptrepo.NewFakeAttemptRepo()

	_, err := audit.NewSweeper(nil, attempts)
	require.Error(t, err)

	_, err = audit.NewSweeper(events, nil)
	require.Error(t, err)

	_, err = audit.NewSweeper(events, attempts, audit.WithBatchSize(0))
	require.Error(t, err)
}
