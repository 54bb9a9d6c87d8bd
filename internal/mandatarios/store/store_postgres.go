package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"juntas/internal/mandatarios/models"
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

const mandatarioColumns = `id, junta_id, documento, tipo_documento_id, nombres, apellidos, genero,
	fecha_nacimiento, residencia, lugar_residencia_id, telefono, email,
	asignacion_tipo, cargo_id, comision_id, f_inicio_periodo, f_fin_periodo, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMandatario(row rowScanner) (*models.Mandatario, error) {
	var (
		m          models.Mandatario
		genero     string
		tipoDoc    sql.NullInt64
		residencia sql.NullInt64
		asigTipo   sql.NullString
		cargo      sql.NullInt64
		comision   sql.NullInt64
	)
	err := row.Scan(&m.ID, &m.JuntaID, &m.Documento, &tipoDoc, &m.Nombres, &m.Apellidos, &genero,
		&m.FechaNacimiento, &m.Residencia, &residencia, &m.Telefono, &m.Email,
		&asigTipo, &cargo, &comision, &m.FInicioPeriodo, &m.FFinPeriodo, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Genero = models.Genero(genero)
	if tipoDoc.Valid {
		id := domain.DocumentoID(tipoDoc.Int64)
		m.TipoDocumentoID = &id
	}
	if residencia.Valid {
		id := domain.LugarID(residencia.Int64)
		m.LugarResidenciaID = &id
	}
	switch models.TipoAsignacion(asigTipo.String) {
	case models.AsignacionCargo:
		m.Asignacion = models.Cargo(cargo.Int64)
	case models.AsignacionComision:
		m.Asignacion = models.Comision(comision.Int64)
	}
	return &m, nil
}

func nullInt(p *int64) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *p, Valid: true}
}

func nullTipoDoc(id *domain.DocumentoID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func nullLugar(id *domain.LugarID) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*id), Valid: true}
}

func asignacionTipo(a *models.Asignacion) sql.NullString {
	if a == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(a.Tipo), Valid: true}
}

func mapWriteErr(err error, op string) error {
	if constraint, ok := database.IsUniqueViolation(err); ok {
		if strings.Contains(constraint, "junta_documento") {
			return ErrYaEsMiembro
		}
		return ErrConflict
	}
	if constraint, ok := database.IsCheckViolation(err); ok {
		return fmt.Errorf("%s: check %s: %w", op, constraint, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Postgres) List(ctx context.Context, f models.Filter) ([]*models.Mandatario, error) {
	var (
		where []string
		args  []any
	)
	if f.JuntaID != 0 {
		args = append(args, int64(f.JuntaID))
		where = append(where, fmt.Sprintf("junta_id = $%d", len(args)))
	}
	if f.Documento != "" {
		args = append(args, f.Documento)
		where = append(where, fmt.Sprintf("documento = $%d", len(args)))
	}
	if f.CargoID != 0 {
		args = append(args, int64(f.CargoID))
		where = append(where, fmt.Sprintf("cargo_id = $%d", len(args)))
	}
	if f.ComisionID != 0 {
		args = append(args, int64(f.ComisionID))
		where = append(where, fmt.Sprintf("comision_id = $%d", len(args)))
	}
	query := `SELECT ` + mandatarioColumns + ` FROM mandatarios`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY apellidos, id`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list mandatarios: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Mandatario, 0)
	for rows.Next() {
		m, err := scanMandatario(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mandatario: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Postgres) findOne(ctx context.Context, tail string, arg any) (*models.Mandatario, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+mandatarioColumns+` FROM mandatarios `+tail, arg)
	m, err := scanMandatario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find mandatario: %w", err)
	}
	return m, nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.MandatarioID) (*models.Mandatario, error) {
	return s.findOne(ctx, `WHERE id = $1`, int64(id))
}

func (s *Postgres) FindLatestByDocumento(ctx context.Context, documento string) (*models.Mandatario, error) {
	return s.findOne(ctx, `WHERE documento = $1 ORDER BY id DESC LIMIT 1`, documento)
}

func (s *Postgres) Create(ctx context.Context, m *models.Mandatario) error {
	err := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO mandatarios (junta_id, documento, tipo_documento_id, nombres, apellidos, genero,
			fecha_nacimiento, residencia, lugar_residencia_id, telefono, email,
			asignacion_tipo, cargo_id, comision_id, f_inicio_periodo, f_fin_periodo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
		RETURNING id`,
		int64(m.JuntaID), m.Documento, nullTipoDoc(m.TipoDocumentoID), m.Nombres, m.Apellidos, string(m.Genero),
		m.FechaNacimiento, m.Residencia, nullLugar(m.LugarResidenciaID), m.Telefono, m.Email,
		asignacionTipo(m.Asignacion), nullInt(m.Asignacion.CargoID()), nullInt(m.Asignacion.ComisionID()),
		m.FInicioPeriodo, m.FFinPeriodo, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return mapWriteErr(err, "insert mandatario")
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, m *models.Mandatario) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE mandatarios
		SET documento = $2, tipo_documento_id = $3, nombres = $4, apellidos = $5, genero = $6,
			fecha_nacimiento = $7, residencia = $8, lugar_residencia_id = $9, telefono = $10, email = $11,
			asignacion_tipo = $12, cargo_id = $13, comision_id = $14,
			f_inicio_periodo = $15, f_fin_periodo = $16, updated_at = $17
		WHERE id = $1`,
		int64(m.ID), m.Documento, nullTipoDoc(m.TipoDocumentoID), m.Nombres, m.Apellidos, string(m.Genero),
		m.FechaNacimiento, m.Residencia, nullLugar(m.LugarResidenciaID), m.Telefono, m.Email,
		asignacionTipo(m.Asignacion), nullInt(m.Asignacion.CargoID()), nullInt(m.Asignacion.ComisionID()),
		m.FInicioPeriodo, m.FFinPeriodo, m.UpdatedAt,
	)
	if err != nil {
		return mapWriteErr(err, "update mandatario")
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

func (s *Postgres) Delete(ctx context.Context, id domain.MandatarioID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM mandatarios WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("delete mandatario: %w", err)
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
