package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "juntas/pkg/domain-errors"
)

func ptr(v int64) *int64 { return &v }

func TestLugarRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     LugarRequest
		wantErr bool
	}{
		{"departamento without parent", LugarRequest{Nombre: "Boyacá", Tipo: "Departamento"}, false},
		{"departamento with parent", LugarRequest{Nombre: "Boyacá", Tipo: "Departamento", PadreID: ptr(3)}, true},
		{"provincia needs parent", LugarRequest{Nombre: "Centro", Tipo: "Provincia"}, true},
		{"municipio with parent", LugarRequest{Nombre: "Tunja", Tipo: "Municipio", PadreID: ptr(2), CodigoDane: "15001"}, false},
		{"unknown tipo", LugarRequest{Nombre: "Vereda", Tipo: "Vereda", PadreID: ptr(2)}, true},
		{"non numeric dane", LugarRequest{Nombre: "Tunja", Tipo: "Municipio", PadreID: ptr(2), CodigoDane: "15A01"}, true},
		{"missing nombre", LugarRequest{Tipo: "Departamento"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize()
			_, err := tt.req.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestTipo_ParentTipo(t *testing.T) {
	p, ok := TipoMunicipio.ParentTipo()
	assert.True(t, ok)
	assert.Equal(t, TipoProvincia, p)

	p, ok = TipoProvincia.ParentTipo()
	assert.True(t, ok)
	assert.Equal(t, TipoDepartamento, p)

	_, ok = TipoDepartamento.ParentTipo()
	assert.False(t, ok)
}

func TestNormalize_ZeroParentIsNone(t *testing.T) {
	r := LugarRequest{Nombre: " Boyacá ", Tipo: "Departamento", PadreID: ptr(0)}
	r.Normalize()
	assert.Nil(t, r.PadreID)
	assert.Equal(t, "Boyacá", r.Nombre)
}
