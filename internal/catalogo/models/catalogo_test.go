package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "juntas/pkg/domain-errors"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
		assert.NotEmpty(t, got.Table())
	}

	_, err := ParseKind("usuarios")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestItemRequest_Validate(t *testing.T) {
	t.Run("normalizes whitespace and code case", func(t *testing.T) {
		r := ItemRequest{Nombre: "  Junta   de Acción  ", Codigo: " jac "}
		r.Normalize()
		assert.Equal(t, "Junta de Acción", r.Nombre)
		assert.Equal(t, "JAC", r.Codigo)
	})

	t.Run("nombre required", func(t *testing.T) {
		r := ItemRequest{}
		assert.True(t, dErrors.HasCode(r.Validate(KindCargo), dErrors.CodeValidation))
	})

	t.Run("tipo de junta requires code", func(t *testing.T) {
		r := ItemRequest{Nombre: "Junta de Vivienda Comunitaria"}
		assert.Error(t, r.Validate(KindTipoJunta))
		r.Codigo = CodigoJVC
		assert.NoError(t, r.Validate(KindTipoJunta))
	})
}
