package fakeeventrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/komunitas-dev/go-auth-core/audit"
)

var _ audit.EventRepo = (*FakeEventRepo)(nil)

type FakeEventRepo struct {
	events []audit.Event
	lock   sync.RWMutex
}

func NewFakeEventRepo() *FakeEventRepo {
	return &FakeEventRepo{}
}

func (er *FakeEventRepo) Append(_ context.Context, event audit.Event) error {
	er.lock.Lock()
	defer er.lock.Unlock()

	er.events = append(er.events, event)
	return nil
}

func (er *FakeEventRepo) CountRecent(_ context.Context, eventType audit.EventType, identifier string, since time.Time) (int, error) {
	er.lock.RLock()
	defer er.lock.RUnlock()

	count := 0
	for _, event := range er.events {
		if event.Type != eventType || event.Identifier != identifier {
			continue
		}
		if event.CreatedAt.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

func (er *FakeEventRepo) DeleteOlderThan(_ context.Context, cutoff time.Time, limit int) (int, error) {
	er.lock.Lock()
	defer er.lock.Unlock()

	sort.Slice(er.events, func(i, j int) bool {
		return er.events[i].CreatedAt.Before(er.events[j].CreatedAt)
	})

	deleted := 0
	kept := er.events[:0]
	for _, event := range er.events {
		if deleted < limit && event.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, event)
	}
	er.events = kept
	return deleted, nil
}

// Events returns a snapshot of stored events (test helper).
func (er *FakeEventRepo) Events() []audit.Event {
	er.lock.RLock()
	defer er.lock.RUnlock()

	snapshot := make([]audit.Event, len(er.events))
	copy(snapshot, er.events)
	return snapshot
}
