package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/komunitas-dev/go-auth-core/ratelimit"
	"github.com/pkg/errors"
)

var _ ratelimit.AttemptRepo = (*AttemptRepo)(nil)

// AttemptRepo stores failed-attempt records in the failed_attempts table.
// The (operation, identifier, attempted_at) index serves the sliding-window
// count.
type AttemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

func (ar *AttemptRepo) Append(ctx context.Context, attempt ratelimit.FailedAttempt) error {
	_, err := ar.pool.Exec(ctx, `
		INSERT INTO failed_attempts (id, operation, identifier, reason, attempted_at)
		VALUES ($1, $2, $3, $4, $5)`,
		attempt.ID, string(attempt.Operation), attempt.Identifier, string(attempt.Reason), attempt.AttemptedAt,
	)
	return errors.Wrap(err, "[AttemptRepo.Append] insert")
}

func (ar *AttemptRepo) Window(ctx context.Context, operation ratelimit.Operation, identifier string, since time.Time) (int, time.Time, error) {
	var count int
	var oldest *time.Time
	err := ar.pool.QueryRow(ctx, `
		SELECT count(*), min(attempted_at)
		FROM failed_attempts
		WHERE operation = $1 AND identifier = $2 AND attempted_at >= $3`,
		string(operation), identifier, since,
	).Scan(&count, &oldest)
	if err != nil {
		return 0, time.Time{}, errors.Wrap(err, "[AttemptRepo.Window] query")
	}
	if oldest == nil {
		return count, time.Time{}, nil
	}
	return count, *oldest, nil
}

func (ar *AttemptRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := ar.pool.Exec(ctx, `
		DELETE FROM failed_attempts
		WHERE id IN (
			SELECT id FROM failed_attempts WHERE attempted_at < $1 ORDER BY attempted_at LIMIT $2
		)`, cutoff, limit)
	if err != nil {
		return 0, errors.Wrap(err, "[AttemptRepo.DeleteOlderThan] delete")
	}
	return int(tag.RowsAffected()), nil
}
