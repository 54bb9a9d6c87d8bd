package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"juntas/internal/catalogo/models"
	"juntas/internal/platform/database"
	txcontext "juntas/pkg/platform/tx"
)

// Postgres stores each kind in its own table. Table names come from
// models.Kind and never from user input.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) conn(ctx context.Context) txcontext.DBTX {
	return txcontext.Conn(ctx, s.db)
}

func (s *Postgres) List(ctx context.Context, kind models.Kind) ([]*models.Item, error) {
	query := fmt.Sprintf(`SELECT id, nombre, descripcion, COALESCE(codigo, '') FROM %s ORDER BY nombre`, kind.Table())
	rows, err := s.conn(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var out []*models.Item
	for rows.Next() {
		var it models.Item
		if err := rows.Scan(&it.ID, &it.Nombre, &it.Descripcion, &it.Codigo); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (s *Postgres) FindByID(ctx context.Context, kind models.Kind, id int64) (*models.Item, error) {
	query := fmt.Sprintf(`SELECT id, nombre, descripcion, COALESCE(codigo, '') FROM %s WHERE id = $1`, kind.Table())
	return s.findOne(ctx, kind, query, id)
}

func (s *Postgres) FindByNombre(ctx context.Context, kind models.Kind, nombre string) (*models.Item, error) {
	query := fmt.Sprintf(`SELECT id, nombre, descripcion, COALESCE(codigo, '') FROM %s WHERE lower(nombre) = lower($1)`, kind.Table())
	return s.findOne(ctx, kind, query, nombre)
}

func (s *Postgres) FindByCodigo(ctx context.Context, kind models.Kind, codigo string) (*models.Item, error) {
	query := fmt.Sprintf(`SELECT id, nombre, descripcion, COALESCE(codigo, '') FROM %s WHERE upper(codigo) = upper($1)`, kind.Table())
	return s.findOne(ctx, kind, query, codigo)
}

func (s *Postgres) findOne(ctx context.Context, kind models.Kind, query string, arg any) (*models.Item, error) {
	var it models.Item
	err := s.conn(ctx).QueryRowContext(ctx, query, arg).Scan(&it.ID, &it.Nombre, &it.Descripcion, &it.Codigo)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	return &it, nil
}

func (s *Postgres) Create(ctx context.Context, kind models.Kind, item *models.Item) error {
	query := fmt.Sprintf(`INSERT INTO %s (nombre, descripcion, codigo) VALUES ($1, $2, NULLIF($3, '')) RETURNING id`, kind.Table())
	err := s.conn(ctx).QueryRowContext(ctx, query, item.Nombre, item.Descripcion, item.Codigo).Scan(&item.ID)
	if _, ok := database.IsUniqueViolation(err); ok {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert %s: %w", kind, err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, kind models.Kind, item *models.Item) error {
	query := fmt.Sprintf(`UPDATE %s SET nombre = $2, descripcion = $3, codigo = NULLIF($4, '') WHERE id = $1`, kind.Table())
	res, err := s.conn(ctx).ExecContext(ctx, query, item.ID, item.Nombre, item.Descripcion, item.Codigo)
	if _, ok := database.IsUniqueViolation(err); ok {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, kind models.Kind, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, kind.Table())
	res, err := s.conn(ctx).ExecContext(ctx, query, id)
	if _, ok := database.IsForeignKeyViolation(err); ok {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
