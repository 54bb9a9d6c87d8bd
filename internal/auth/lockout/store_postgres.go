package lockout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Postgres persists records in auth_lockouts. It holds no policy; the
// service decides when to lock.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Get(ctx context.Context, identifier string) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		SELECT identifier, failure_count, last_failure_at, locked_until
		FROM auth_lockouts
		WHERE identifier = $1`, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get auth lockout: %w", err)
	}
	return rec, nil
}

func (s *Postgres) RecordFailure(ctx context.Context, identifier string, now time.Time, window time.Duration) (*Record, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, `
		INSERT INTO auth_lockouts (identifier, failure_count, last_failure_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = CASE WHEN auth_lockouts.last_failure_at < $3
				THEN 1 ELSE auth_lockouts.failure_count + 1 END,
			locked_until = CASE WHEN auth_lockouts.last_failure_at < $3
				THEN NULL ELSE auth_lockouts.locked_until END,
			last_failure_at = EXCLUDED.last_failure_at
		RETURNING identifier, failure_count, last_failure_at, locked_until`,
		identifier, now, now.Add(-window)))
	if err != nil {
		return nil, fmt.Errorf("record auth failure: %w", err)
	}
	return rec, nil
}

func (s *Postgres) Lock(ctx context.Context, identifier string, until time.Time, _ time.Duration) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE auth_lockouts SET locked_until = $2 WHERE identifier = $1`, identifier, until); err != nil {
		return fmt.Errorf("lock auth identifier: %w", err)
	}
	return nil
}

func (s *Postgres) Clear(ctx context.Context, identifier string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM auth_lockouts WHERE identifier = $1`, identifier); err != nil {
		return fmt.Errorf("clear auth lockout: %w", err)
	}
	return nil
}

func scanRecord(row *sql.Row) (*Record, error) {
	var (
		rec         Record
		lockedUntil sql.NullTime
	)
	if err := row.Scan(&rec.Identifier, &rec.FailureCount, &rec.LastFailureAt, &lockedUntil); err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		rec.LockedUntil = &t
	}
	return &rec, nil
}
