package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/komunitas-dev/go-auth-core/audit"
	"github.com/pkg/errors"
)

var _ audit.EventRepo = (*EventRepo)(nil)

// EventRepo stores security events in the security_events table.
type EventRepo struct {
	pool *pgxpool.Pool
}

func NewEventRepo(pool *pgxpool.Pool) *EventRepo {
	return &EventRepo{pool: pool}
}

func (er *EventRepo) Append(ctx context.Context, event audit.Event) error {
	_, err := er.pool.Exec(ctx, `
		INSERT INTO security_events (id, event_type, identifier, actor_id, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, string(event.Type), event.Identifier, event.ActorID, event.Detail, event.CreatedAt,
	)
	return errors.Wrap(err, "[EventRepo.Append] insert")
}

func (er *EventRepo) CountRecent(ctx context.Context, eventType audit.EventType, identifier string, since time.Time) (int, error) {
	var count int
	err := er.pool.QueryRow(ctx, `
		SELECT count(*) FROM security_events
		WHERE event_type = $1 AND identifier = $2 AND created_at >= $3`,
		string(eventType), identifier, since,
	).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "[EventRepo.CountRecent] query")
	}
	return count, nil
}

func (er *EventRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := er.pool.Exec(ctx, `
		DELETE FROM security_events
		WHERE id IN (
			SELECT id FROM security_events WHERE created_at < $1 ORDER BY created_at LIMIT $2
		)`, cutoff, limit)
	if err != nil {
		return 0, errors.Wrap(err, "[EventRepo.DeleteOlderThan] delete")
	}
	return int(tag.RowsAffected()), nil
}
