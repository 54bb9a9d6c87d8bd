package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNewFirma(t *testing.T) {
	f, err := NewFirma(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", f.Mime)

	_, err = NewFirma([]byte("%PDF-1.4"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = NewFirma(nil)
	assert.Error(t, err)

	_, err = NewFirma(make([]byte, MaxFirmaBytes+1))
	assert.Error(t, err)
}

func TestUsuarioRequest_Validate(t *testing.T) {
	valid := func() UsuarioRequest {
		return UsuarioRequest{
			Nombre:    "Ana  Pérez",
			Email:     " Ana@Boyaca.gov.co ",
			Documento: "1049612345",
			Password:  "clave-segura",
			Rol:       "Auxiliar",
		}
	}

	r := valid()
	r.Normalize()
	rol, err := r.Validate(true)
	require.NoError(t, err)
	assert.Equal(t, domain.RolAuxiliar, rol)
	assert.Equal(t, "ana@boyaca.gov.co", r.Email)
	assert.Equal(t, "Ana Pérez", r.Nombre)

	cases := map[string]func(*UsuarioRequest){
		"bad email":       func(r *UsuarioRequest) { r.Email = "no-es-correo" },
		"short password":  func(r *UsuarioRequest) { r.Password = "corta" },
		"unknown rol":     func(r *UsuarioRequest) { r.Rol = "Root" },
		"alpha documento": func(r *UsuarioRequest) { r.Documento = "ABC12345" },
		"empty nombre":    func(r *UsuarioRequest) { r.Nombre = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := valid()
			mutate(&r)
			r.Normalize()
			_, err := r.Validate(true)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}

	t.Run("password optional on update", func(t *testing.T) {
		r := valid()
		r.Password = ""
		r.Normalize()
		_, err := r.Validate(false)
		assert.NoError(t, err)
	})
}
