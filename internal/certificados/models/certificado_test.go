package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
)

func TestParseTipo(t *testing.T) {
	tipo, err := ParseTipo(" JVC ")
	require.NoError(t, err)
	assert.Equal(t, TipoJVC, tipo)
	assert.Equal(t, "JVC", tipo.CodigoTipoJunta())
	assert.Empty(t, TipoAutoresolutorio.CodigoTipoJunta())

	_, err = ParseTipo("paz-y-salvo")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestEmitirRequest_Validate(t *testing.T) {
	_, err := (&EmitirRequest{Tipo: "autoresolutorio"}).Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = (&EmitirRequest{Tipo: "jac", Documento: "123"}).Validate()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	req := &EmitirRequest{Tipo: "autoresolutorio", Documento: " 1049 "}
	tipo, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, TipoAutoresolutorio, tipo)
	assert.Equal(t, "1049", req.Documento)
}

func TestFilename(t *testing.T) {
	id := domain.CertificadoID(uuid.MustParse("5b0e3c4e-8d4e-4a53-9c53-1f1e0d6f9a11"))
	c := &Certificado{ID: id, Tipo: TipoJAC, Datos: Datos{RazonSocial: "JAC Vereda Peña Negra"}}
	assert.Equal(t, "certificado-jac-jac-vereda-pena-negra.pdf", c.Filename())

	c = &Certificado{ID: id, Tipo: TipoAutoresolutorio, Datos: Datos{RazonSocial: "JAC Centro", Mandatario: "Óscar Iván Núñez"}}
	assert.Equal(t, "certificado-autoresolutorio-oscar-ivan-nunez.pdf", c.Filename())

	c = &Certificado{ID: id, Tipo: TipoJVC, EmitidoEn: time.Now()}
	assert.Equal(t, "certificado-jvc-"+id.String()+".pdf", c.Filename())
}

func TestDatos_ScanValue(t *testing.T) {
	in := Datos{RazonSocial: "JAC Centro", FechaInicioPeriodo: domain.NewFecha(2022, time.July, 1)}
	v, err := in.Value()
	require.NoError(t, err)

	var out Datos
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in.RazonSocial, out.RazonSocial)
	assert.Equal(t, "2022-07-01", out.FechaInicioPeriodo.String())

	assert.Error(t, out.Scan(42))
}
