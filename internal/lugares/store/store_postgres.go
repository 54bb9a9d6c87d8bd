package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"juntas/internal/lugares/models"
	"juntas/internal/platform/database"
	"juntas/pkg/domain"
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

const lugarColumns = `id, nombre, tipo, padre_id, COALESCE(codigo_dane, '')`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLugar(row rowScanner) (*models.Lugar, error) {
	var (
		l     models.Lugar
		tipo  string
		padre sql.NullInt64
	)
	if err := row.Scan(&l.ID, &l.Nombre, &tipo, &padre, &l.CodigoDane); err != nil {
		return nil, err
	}
	l.Tipo = models.Tipo(tipo)
	if padre.Valid {
		id := domain.LugarID(padre.Int64)
		l.PadreID = &id
	}
	return &l, nil
}

func nullParent(id *domain.LugarID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func (s *Postgres) List(ctx context.Context, f models.Filter) ([]*models.Lugar, error) {
	var (
		where []string
		args  []any
	)
	if f.Tipo != "" {
		args = append(args, string(f.Tipo))
		where = append(where, fmt.Sprintf("tipo = $%d", len(args)))
	}
	if f.PadreID != nil {
		args = append(args, int64(*f.PadreID))
		where = append(where, fmt.Sprintf("padre_id = $%d", len(args)))
	}
	query := `SELECT ` + lugarColumns + ` FROM lugares`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY nombre`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lugares: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Lugar, 0)
	for rows.Next() {
		l, err := scanLugar(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lugar: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Postgres) FindByID(ctx context.Context, id domain.LugarID) (*models.Lugar, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+lugarColumns+` FROM lugares WHERE id = $1`, int64(id))
	l, err := scanLugar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lugar: %w", err)
	}
	return l, nil
}

func (s *Postgres) FindByNombre(ctx context.Context, tipo models.Tipo, padreID *domain.LugarID, nombre string) (*models.Lugar, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+lugarColumns+` FROM lugares
		WHERE tipo = $1 AND padre_id IS NOT DISTINCT FROM $2 AND lower(nombre) = lower($3)
		LIMIT 1`,
		string(tipo), nullParent(padreID), nombre)
	l, err := scanLugar(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lugar by nombre: %w", err)
	}
	return l, nil
}

func (s *Postgres) CountChildren(ctx context.Context, id domain.LugarID) (int, error) {
	var n int
	err := s.conn(ctx).QueryRowContext(ctx, `SELECT count(*) FROM lugares WHERE padre_id = $1`, int64(id)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count children: %w", err)
	}
	return n, nil
}

func (s *Postgres) Create(ctx context.Context, l *models.Lugar) error {
	err := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO lugares (nombre, tipo, padre_id, codigo_dane)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		RETURNING id`,
		l.Nombre, string(l.Tipo), nullParent(l.PadreID), l.CodigoDane,
	).Scan(&l.ID)
	if _, ok := database.IsUniqueViolation(err); ok {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert lugar: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, l *models.Lugar) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE lugares
		SET nombre = $2, tipo = $3, padre_id = $4, codigo_dane = NULLIF($5, ''), updated_at = now()
		WHERE id = $1`,
		int64(l.ID), l.Nombre, string(l.Tipo), nullParent(l.PadreID), l.CodigoDane,
	)
	if _, ok := database.IsUniqueViolation(err); ok {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update lugar: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id domain.LugarID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM lugares WHERE id = $1`, int64(id))
	if _, ok := database.IsForeignKeyViolation(err); ok {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete lugar: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
