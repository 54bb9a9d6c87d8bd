package reset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"juntas/internal/auth/models"
	"juntas/internal/platform/database"
	"juntas/pkg/domain"
	"juntas/pkg/platform/sentinel"
	txcontext "juntas/pkg/platform/tx"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) conn(ctx context.Context) txcontext.DBTX {
	return txcontext.Conn(ctx, s.db)
}

func (s *Postgres) Create(ctx context.Context, r *models.PasswordReset) error {
	_, err := s.conn(ctx).ExecContext(ctx,
		`INSERT INTO password_resets (jti, usuario_id, expires_at) VALUES ($1, $2, $3)`,
		r.JTI, int64(r.UsuarioID), r.ExpiresAt)
	if _, ok := database.IsUniqueViolation(err); ok {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert password reset: %w", err)
	}
	return nil
}

// Consume flips used_at in a single conditional update; a concurrent second
// caller sees zero rows and then learns why from the follow-up read.
func (s *Postgres) Consume(ctx context.Context, jti string, now time.Time) (*models.PasswordReset, error) {
	var (
		r         models.PasswordReset
		usuarioID int64
	)
	err := s.conn(ctx).QueryRowContext(ctx, `
		UPDATE password_resets SET used_at = $2
		WHERE jti = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING jti, usuario_id, expires_at`, jti, now).
		Scan(&r.JTI, &usuarioID, &r.ExpiresAt)
	if err == nil {
		r.UsuarioID = domain.UsuarioID(usuarioID)
		return &r, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("consume password reset: %w", err)
	}

	var usedAt sql.NullTime
	err = s.conn(ctx).QueryRowContext(ctx,
		`SELECT used_at FROM password_resets WHERE jti = $1`, jti).Scan(&usedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("read password reset: %w", err)
	case usedAt.Valid:
		return nil, ErrAlreadyUsed
	default:
		return nil, ErrExpired
	}
}
