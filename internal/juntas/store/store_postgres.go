package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"juntas/internal/juntas/models"
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

const juntaColumns = `id, razon_social, direccion, num_personeria_juridica, fecha_creacion, zona,
	fecha_inicio_periodo, fecha_fin_periodo, fecha_asamblea, tipo_junta_id, institucion_id,
	lugar_id, activo, junta_anterior_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJunta(row rowScanner) (*models.Junta, error) {
	var (
		j           models.Junta
		zona        string
		institucion sql.NullInt64
		anterior    sql.NullInt64
	)
	err := row.Scan(&j.ID, &j.RazonSocial, &j.Direccion, &j.NumPersoneriaJuridica, &j.FechaCreacion, &zona,
		&j.FechaInicioPeriodo, &j.FechaFinPeriodo, &j.FechaAsamblea, &j.TipoJuntaID, &institucion,
		&j.LugarID, &j.Activo, &anterior, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Zona = models.Zona(zona)
	if institucion.Valid {
		id := domain.InstitucionID(institucion.Int64)
		j.InstitucionID = &id
	}
	if anterior.Valid {
		id := domain.JuntaID(anterior.Int64)
		j.JuntaAnteriorID = &id
	}
	return &j, nil
}

func nullInstitucion(id *domain.InstitucionID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func nullJunta(id *domain.JuntaID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func mapWriteErr(err error, op string) error {
	if _, ok := database.IsUniqueViolation(err); ok {
		return ErrPersoneriaTaken
	}
	if constraint, ok := database.IsCheckViolation(err); ok {
		return fmt.Errorf("%s: check %s: %w", op, constraint, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Postgres) List(ctx context.Context, f models.Filter) ([]*models.Junta, error) {
	var (
		where []string
		args  []any
	)
	if f.Activo != nil {
		args = append(args, *f.Activo)
		where = append(where, fmt.Sprintf("activo = $%d", len(args)))
	}
	if f.LugarID != 0 {
		args = append(args, int64(f.LugarID))
		where = append(where, fmt.Sprintf("lugar_id = $%d", len(args)))
	}
	if f.TipoJuntaID != 0 {
		args = append(args, int64(f.TipoJuntaID))
		where = append(where, fmt.Sprintf("tipo_junta_id = $%d", len(args)))
	}
	if f.Q != "" {
		args = append(args, "%"+f.Q+"%")
		where = append(where, fmt.Sprintf("(razon_social ILIKE $%d OR num_personeria_juridica ILIKE $%d)", len(args), len(args)))
	}
	query := `SELECT ` + juntaColumns + ` FROM juntas`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY razon_social, id DESC`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list juntas: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Junta, 0)
	for rows.Next() {
		j, err := scanJunta(rows)
		if err != nil {
			return nil, fmt.Errorf("scan junta: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*models.Junta, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+juntaColumns+` FROM juntas WHERE `+where+` LIMIT 1`, arg)
	j, err := scanJunta(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find junta: %w", err)
	}
	return j, nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.JuntaID) (*models.Junta, error) {
	return s.findOne(ctx, `id = $1`, int64(id))
}

func (s *Postgres) FindActivaByPersoneria(ctx context.Context, num string) (*models.Junta, error) {
	return s.findOne(ctx, `activo AND upper(num_personeria_juridica) = upper($1)`, num)
}

func (s *Postgres) FindSucesora(ctx context.Context, id domain.JuntaID) (*models.Junta, error) {
	return s.findOne(ctx, `junta_anterior_id = $1`, int64(id))
}

func (s *Postgres) Create(ctx context.Context, j *models.Junta) error {
	err := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO juntas (razon_social, direccion, num_personeria_juridica, fecha_creacion, zona,
			fecha_inicio_periodo, fecha_fin_periodo, fecha_asamblea, tipo_junta_id, institucion_id,
			lugar_id, activo, junta_anterior_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
		RETURNING id`,
		j.RazonSocial, j.Direccion, j.NumPersoneriaJuridica, j.FechaCreacion, string(j.Zona),
		j.FechaInicioPeriodo, j.FechaFinPeriodo, j.FechaAsamblea, int64(j.TipoJuntaID), nullInstitucion(j.InstitucionID),
		int64(j.LugarID), j.Activo, nullJunta(j.JuntaAnteriorID), j.CreatedAt,
	).Scan(&j.ID)
	if err != nil {
		return mapWriteErr(err, "insert junta")
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, j *models.Junta) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE juntas
		SET razon_social = $2, direccion = $3, num_personeria_juridica = $4, fecha_creacion = $5, zona = $6,
			fecha_inicio_periodo = $7, fecha_fin_periodo = $8, fecha_asamblea = $9, tipo_junta_id = $10,
			institucion_id = $11, lugar_id = $12, activo = $13, updated_at = $14
		WHERE id = $1`,
		int64(j.ID), j.RazonSocial, j.Direccion, j.NumPersoneriaJuridica, j.FechaCreacion, string(j.Zona),
		j.FechaInicioPeriodo, j.FechaFinPeriodo, j.FechaAsamblea, int64(j.TipoJuntaID),
		nullInstitucion(j.InstitucionID), int64(j.LugarID), j.Activo, j.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "update junta")
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

func (s *Postgres) Delete(ctx context.Context, id domain.JuntaID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM juntas WHERE id = $1`, int64(id))
	if _, ok := database.IsForeignKeyViolation(err); ok {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete junta: %w", err)
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
