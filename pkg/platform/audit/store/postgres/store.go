package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"juntas/pkg/domain"
	audit "juntas/pkg/platform/audit"
	txcontext "juntas/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins the caller's transaction so an audit row commits or rolls
// back with the change it describes.
func (s *Store) execer(ctx context.Context) dbExecutor {
	return txcontext.Conn(ctx, s.db)
}

// Append inserts an event. Duplicate ids are ignored.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	var usuarioID sql.NullInt64
	if event.UsuarioID != 0 {
		usuarioID = sql.NullInt64{Int64: int64(event.UsuarioID), Valid: true}
	}

	query := `
		INSERT INTO audit_events (
			id, category, occurred_at, usuario_id, subject, action,
			decision, reason, request_id, ip, user_agent, detail
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		string(category),
		event.Timestamp,
		usuarioID,
		event.Subject,
		event.Action,
		event.Decision,
		event.Reason,
		event.RequestID,
		event.IP,
		event.UserAgent,
		event.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

const selectColumns = `
	SELECT id, category, occurred_at, usuario_id, subject, action,
		   decision, reason, request_id, ip, user_agent, detail
	FROM audit_events`

func (s *Store) ListByUsuario(ctx context.Context, usuarioID domain.UsuarioID) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE usuario_id = $1
		ORDER BY occurred_at ASC`, int64(usuarioID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY occurred_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListByActions(ctx context.Context, actions []string, limit int) ([]audit.Event, error) {
	if len(actions) == 0 {
		return s.ListRecent(ctx, limit)
	}
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE action = ANY($1)
		ORDER BY occurred_at DESC
		LIMIT $2`, pq.Array(actions), limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events by action: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event     audit.Event
			category  string
			usuarioID sql.NullInt64
		)
		err := rows.Scan(
			&event.ID,
			&category,
			&event.Timestamp,
			&usuarioID,
			&event.Subject,
			&event.Action,
			&event.Decision,
			&event.Reason,
			&event.RequestID,
			&event.IP,
			&event.UserAgent,
			&event.Detail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.Category = audit.EventCategory(category)
		if usuarioID.Valid {
			event.UsuarioID = domain.UsuarioID(usuarioID.Int64)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
