// Package seed loads the Boyacá reference data and the first Administrador.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	cmodels "juntas/internal/catalogo/models"
	lmodels "juntas/internal/lugares/models"
	umodels "juntas/internal/usuarios/models"
)

//go:embed data.yaml
var embedded []byte

type Data struct {
	Departamento Departamento          `yaml:"departamento"`
	Cargos       []cmodels.ItemRequest `yaml:"cargos"`
	Comisiones   []cmodels.ItemRequest `yaml:"comisiones"`
	TiposJunta   []cmodels.ItemRequest `yaml:"tiposJunta"`
	Documentos   []cmodels.ItemRequest `yaml:"documentos"`
}

type Departamento struct {
	Nombre     string      `yaml:"nombre"`
	CodigoDane string      `yaml:"codigoDane"`
	Provincias []Provincia `yaml:"provincias"`
}

type Provincia struct {
	Nombre     string      `yaml:"nombre"`
	CodigoDane string      `yaml:"codigoDane"`
	Municipios []Municipio `yaml:"municipios"`
}

type Municipio struct {
	Nombre     string `yaml:"nombre"`
	CodigoDane string `yaml:"codigoDane"`
}

// Load parses raw, or the embedded data set when raw is nil.
func Load(raw []byte) (*Data, error) {
	if raw == nil {
		raw = embedded
	}
	var d Data
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	if d.Departamento.Nombre == "" {
		return nil, fmt.Errorf("seed data has no departamento")
	}
	return &d, nil
}

type Catalogo interface {
	Ensure(ctx context.Context, kind cmodels.Kind, req cmodels.ItemRequest) (*cmodels.Item, error)
}

type Lugares interface {
	Ensure(ctx context.Context, req lmodels.LugarRequest) (*lmodels.Lugar, error)
}

type Usuarios interface {
	EnsureAdmin(ctx context.Context, req umodels.UsuarioRequest) (*umodels.Usuario, bool, error)
}

type Seeder struct {
	catalogo Catalogo
	lugares  Lugares
	usuarios Usuarios
	logger   *slog.Logger
}

func New(catalogo Catalogo, lugares Lugares, usuarios Usuarios, logger *slog.Logger) *Seeder {
	return &Seeder{catalogo: catalogo, lugares: lugares, usuarios: usuarios, logger: logger}
}

// Summary counts what a run touched. Existing rows are counted too.
type Summary struct {
	Lugares  int
	Catalogo int
	Admin    bool
}

// Run applies d. It is idempotent.
func (s *Seeder) Run(ctx context.Context, d *Data) (Summary, error) {
	var sum Summary

	dep, err := s.lugares.Ensure(ctx, lmodels.LugarRequest{
		Nombre: d.Departamento.Nombre, Tipo: string(lmodels.TipoDepartamento), CodigoDane: d.Departamento.CodigoDane,
	})
	if err != nil {
		return sum, fmt.Errorf("seed departamento %s: %w", d.Departamento.Nombre, err)
	}
	sum.Lugares++
	for _, p := range d.Departamento.Provincias {
		depID := int64(dep.ID)
		prov, err := s.lugares.Ensure(ctx, lmodels.LugarRequest{
			Nombre: p.Nombre, Tipo: string(lmodels.TipoProvincia), PadreID: &depID, CodigoDane: p.CodigoDane,
		})
		if err != nil {
			return sum, fmt.Errorf("seed provincia %s: %w", p.Nombre, err)
		}
		sum.Lugares++
		for _, m := range p.Municipios {
			provID := int64(prov.ID)
			if _, err := s.lugares.Ensure(ctx, lmodels.LugarRequest{
				Nombre: m.Nombre, Tipo: string(lmodels.TipoMunicipio), PadreID: &provID, CodigoDane: m.CodigoDane,
			}); err != nil {
				return sum, fmt.Errorf("seed municipio %s: %w", m.Nombre, err)
			}
			sum.Lugares++
		}
	}

	for kind, items := range map[cmodels.Kind][]cmodels.ItemRequest{
		cmodels.KindCargo:     d.Cargos,
		cmodels.KindComision:  d.Comisiones,
		cmodels.KindTipoJunta: d.TiposJunta,
		cmodels.KindDocumento: d.Documentos,
	} {
		for _, it := range items {
			if _, err := s.catalogo.Ensure(ctx, kind, it); err != nil {
				return sum, fmt.Errorf("seed %s %s: %w", kind.Label(), it.Nombre, err)
			}
			sum.Catalogo++
		}
	}
	s.logger.InfoContext(ctx, "reference data seeded", "lugares", sum.Lugares, "catalogo", sum.Catalogo)
	return sum, nil
}

// Admin creates the first Administrador unless a user with that email
// already exists. An empty email skips it.
func (s *Seeder) Admin(ctx context.Context, nombre, email, documento, password string) (bool, error) {
	if email == "" {
		return false, nil
	}
	u, created, err := s.usuarios.EnsureAdmin(ctx, umodels.UsuarioRequest{
		Nombre: nombre, Email: email, Documento: documento, Password: password,
	})
	if err != nil {
		return false, fmt.Errorf("seed administrador: %w", err)
	}
	if created {
		s.logger.InfoContext(ctx, "administrador created", "usuario_id", u.ID, "email", u.Email)
	}
	return created, nil
}
