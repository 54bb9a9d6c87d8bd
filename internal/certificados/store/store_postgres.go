package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"juntas/internal/certificados/models"
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

const certificadoColumns = `id, tipo, junta_id, mandatario_id, documento, emitido_por, emitido_en, datos`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertificado(row rowScanner) (*models.Certificado, error) {
	var (
		c          models.Certificado
		id         uuid.UUID
		tipo       string
		mandatario sql.NullInt64
		documento  sql.NullString
	)
	if err := row.Scan(&id, &tipo, &c.JuntaID, &mandatario, &documento, &c.EmitidoPor, &c.EmitidoEn, &c.Datos); err != nil {
		return nil, err
	}
	c.ID = domain.CertificadoID(id)
	c.Tipo = models.Tipo(tipo)
	c.Documento = documento.String
	if mandatario.Valid {
		m := domain.MandatarioID(mandatario.Int64)
		c.MandatarioID = &m
	}
	return &c, nil
}

func (s *Postgres) Create(ctx context.Context, c *models.Certificado) error {
	var mandatario sql.NullInt64
	if c.MandatarioID != nil {
		mandatario = sql.NullInt64{Int64: int64(*c.MandatarioID), Valid: true}
	}
	documento := sql.NullString{String: c.Documento, Valid: c.Documento != ""}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO certificados (`+certificadoColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(c.ID), string(c.Tipo), int64(c.JuntaID), mandatario, documento,
		int64(c.EmitidoPor), c.EmitidoEn, c.Datos,
	)
	if err != nil {
		if _, ok := database.IsUniqueViolation(err); ok {
			return ErrConflict
		}
		return fmt.Errorf("insert certificado: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.CertificadoID) (*models.Certificado, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+certificadoColumns+` FROM certificados WHERE id = $1`, uuid.UUID(id))
	c, err := scanCertificado(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find certificado: %w", err)
	}
	return c, nil
}

func (s *Postgres) ListByJunta(ctx context.Context, junta domain.JuntaID) ([]*models.Certificado, error) {
	query := `SELECT ` + certificadoColumns + ` FROM certificados`
	var args []any
	if junta != 0 {
		query += ` WHERE junta_id = $1`
		args = append(args, int64(junta))
	}
	query += ` ORDER BY emitido_en DESC`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list certificados: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Certificado, 0)
	for rows.Next() {
		c, err := scanCertificado(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificado: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
