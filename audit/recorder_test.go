package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/komunitas-dev/go-auth-core/audit"
	fakeeventrepo "github.com/komunitas-dev/go-auth-core/audit/repofakes"
	"github.com/stretchr/testify/require"
)

const testIdentifier = "maria"

// captureNotifier records notifications for assertions.
type captureNotifier struct {
	lock          sync.Mutex
	notifications []string
}

func (n *captureNotifier) Notify(_ context.Context, subject, _ string) error {
	n.lock.Lock()
	defer n.lock.Unlock()
	n.notifications = append(n.notifications, subject)
	return nil
}

func (n *captureNotifier) count() int {
	n.lock.Lock()
	defer n.lock.Unlock()
	return len(n.notifications)
}

type recorderFixture struct {
	repo     *fakeeventrepo.FakeEventRepo
	notifier *captureNotifier
	recorder *audit.Recorder
	now      time.Time
}

func setupRecorderFixture(t *testing.T, threshold int) *recorderFixture {
	t.Helper()

	f := &recorderFixture{
		repo:     fakeeventrepo.NewFakeEventRepo(),
		notifier: &captureNotifier{},
		now:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	recorder, err := audit.NewRecorder(f.repo, f.notifier,
		audit.WithAlerting(time.Hour, threshold),
		audit.WithNowTime(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	f.recorder = recorder
	return f
}

func (f *recorderFixture) eventsOfType(eventType audit.EventType) []audit.Event {
	var matched []audit.Event
	for _, event := range f.repo.Events() {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}

func TestRecorder_Record(t *testing.T) {
	f := setupRecorderFixture(t, 10)
	ctx := context.Background()

	err := f.recorder.Record(ctx, audit.EventRoleChanged, testIdentifier, "admin-1", "member -> moderator")
	require.NoError(t, err)

	events := f.repo.Events()
	require.Len(t, events, 1)
	require.Equal(t, audit.EventRoleChanged, events[0].Type)
	require.Equal(t, testIdentifier, events[0].Identifier)
	require.Equal(t, "admin-1", events[0].ActorID)
	require.NotEmpty(t, events[0].ID)
	require.Equal(t, f.now, events[0].CreatedAt)
}

func TestRecorder_ElevatedRiskAlert(t *testing.T) {
	const threshold = 3

	t.Run("fires exactly once at the threshold", func(t *testing.T) {
		f := setupRecorderFixture(t, threshold)
		ctx := context.Background()

		for i := 0; i < threshold+2; i++ {
			require.NoError(t, f.recorder.Record(ctx, audit.EventLoginFailed, testIdentifier, "", "wrong password"))
			f.now = f.now.Add(time.Minute)
		}

		require.Len(t, f.eventsOfType(audit.EventElevatedRisk), 1)
		require.Equal(t, 1, f.notifier.count())
	})

	t.Run("failures outside the window do not count", func(t *testing.T) {
		f := setupRecorderFixture(t, threshold)
		ctx := context.Background()

		for i := 0; i < threshold-1; i++ {
			require.NoError(t, f.recorder.Record(ctx, audit.EventLoginFailed, testIdentifier, "", "wrong password"))
		}
		f.now = f.now.Add(2 * time.Hour)
		require.NoError(t, f.recorder.Record(ctx, audit.EventLoginFailed, testIdentifier, "", "wrong password"))

		require.Empty(t, f.eventsOfType(audit.EventElevatedRisk))
		require.Equal(t, 0, f.notifier.count())
	})

	t.Run("identifiers are tracked independently", func(t *testing.T) {
		f := setupRecorderFixture(t, threshold)
		ctx := context.Background()

		for i := 0; i < threshold-1; i++ {
			require.NoError(t, f.recorder.Record(ctx, audit.EventLoginFailed, "someone-else", "", "wrong password"))
		}
		require.NoError(t, f.recorder.Record(ctx, audit.EventLoginFailed, testIdentifier, "", "wrong password"))

		require.Empty(t, f.eventsOfType(audit.EventElevatedRisk))
	})

	t.Run("non-failure events never alert", func(t *testing.T) {
		f := setupRecorderFixture(t, 1)
		ctx := context.Background()

		require.NoError(t, f.recorder.Record(ctx, audit.EventPasswordChanged, testIdentifier, testIdentifier, ""))
		require.Empty(t, f.eventsOfType(audit.EventElevatedRisk))
	})
}
