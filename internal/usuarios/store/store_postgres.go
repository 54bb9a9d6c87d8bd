package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"juntas/internal/platform/database"
	"juntas/internal/usuarios/models"
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

const usuarioColumns = `id, nombre, email, documento, password_hash, rol, firma, COALESCE(firma_mime, ''), activo, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUsuario(row rowScanner) (*models.Usuario, error) {
	var (
		u     models.Usuario
		rol   string
		firma []byte
		mime  string
	)
	err := row.Scan(&u.ID, &u.Nombre, &u.Email, &u.Documento, &u.PasswordHash, &rol,
		&firma, &mime, &u.Activo, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Rol = domain.Rol(rol)
	if len(firma) > 0 {
		u.Firma = &models.Firma{Data: firma, Mime: mime}
	}
	return &u, nil
}

func firmaArgs(f *models.Firma) (any, any) {
	if f == nil {
		return nil, nil
	}
	return f.Data, f.Mime
}

func mapUnique(err error) error {
	constraint, ok := database.IsUniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(constraint, "email"):
		return ErrEmailTaken
	case strings.Contains(constraint, "documento"):
		return ErrDocumentoTaken
	}
	return ErrConflict
}

func (s *Postgres) List(ctx context.Context, f models.Filter) ([]*models.Usuario, error) {
	var (
		where []string
		args  []any
	)
	if f.Rol != "" {
		args = append(args, string(f.Rol))
		where = append(where, fmt.Sprintf("rol = $%d", len(args)))
	}
	if f.Activo != nil {
		args = append(args, *f.Activo)
		where = append(where, fmt.Sprintf("activo = $%d", len(args)))
	}
	query := `SELECT ` + usuarioColumns + ` FROM usuarios`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := s.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list usuarios: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Usuario, 0)
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, fmt.Errorf("scan usuario: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Postgres) findOne(ctx context.Context, where string, arg any) (*models.Usuario, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `SELECT `+usuarioColumns+` FROM usuarios WHERE `+where, arg)
	u, err := scanUsuario(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find usuario: %w", err)
	}
	return u, nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.UsuarioID) (*models.Usuario, error) {
	return s.findOne(ctx, `id = $1`, int64(id))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Usuario, error) {
	return s.findOne(ctx, `lower(email) = lower($1)`, email)
}

func (s *Postgres) FindByDocumento(ctx context.Context, documento string) (*models.Usuario, error) {
	return s.findOne(ctx, `documento = $1`, documento)
}

func (s *Postgres) Create(ctx context.Context, u *models.Usuario) error {
	firma, mime := firmaArgs(u.Firma)
	err := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO usuarios (nombre, email, documento, password_hash, rol, firma, firma_mime, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING id`,
		u.Nombre, u.Email, u.Documento, u.PasswordHash, string(u.Rol), firma, mime, u.Activo, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		if mapped := mapUnique(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("insert usuario: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, u *models.Usuario) error {
	firma, mime := firmaArgs(u.Firma)
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE usuarios
		SET nombre = $2, email = $3, documento = $4, password_hash = $5, rol = $6,
		    firma = $7, firma_mime = $8, activo = $9, updated_at = $10
		WHERE id = $1`,
		int64(u.ID), u.Nombre, u.Email, u.Documento, u.PasswordHash, string(u.Rol),
		firma, mime, u.Activo, u.UpdatedAt,
	)
	if err != nil {
		if mapped := mapUnique(err); mapped != err {
			return mapped
		}
		return fmt.Errorf("update usuario: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) UpdatePassword(ctx context.Context, id domain.UsuarioID, hash string) error {
	res, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE usuarios SET password_hash = $2, updated_at = now() WHERE id = $1`, int64(id), hash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

func (s *Postgres) Delete(ctx context.Context, id domain.UsuarioID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM usuarios WHERE id = $1`, int64(id))
	if _, ok := database.IsForeignKeyViolation(err); ok {
		return ErrInUse
	}
	if err != nil {
		return fmt.Errorf("delete usuario: %w", err)
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
