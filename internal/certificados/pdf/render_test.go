package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juntas/internal/certificados/models"
	umodels "juntas/internal/usuarios/models"
	"juntas/pkg/domain"
)

func TestFechaLarga(t *testing.T) {
	assert.Equal(t, "1 de julio de 2022", FechaLarga(domain.NewFecha(2022, time.July, 1)))
	assert.Equal(t, "29 de febrero de 2028", FechaLarga(domain.NewFecha(2028, time.February, 29)))
	assert.Empty(t, FechaLarga(domain.Fecha{}))
}

func certificado(tipo models.Tipo) *models.Certificado {
	return &models.Certificado{
		ID:        domain.NewCertificadoID(),
		Tipo:      tipo,
		JuntaID:   3,
		EmitidoEn: time.Date(2024, time.May, 2, 15, 0, 0, 0, time.UTC),
		Datos: models.Datos{
			RazonSocial:           "JAC Vereda Cañaveral",
			NumPersoneriaJuridica: "PJ-1234",
			TipoJunta:             "Junta de Acción Comunal",
			Municipio:             "Paipa",
			Provincia:             "Tundama",
			FechaInicioPeriodo:    domain.NewFecha(2022, time.July, 1),
			FechaFinPeriodo:       domain.NewFecha(2026, time.July, 1),
			Mandatario:            "Gloria Inés Peña",
			Documento:             "40012345",
			Cargo:                 "Presidenta",
			EmitidoPor:            "Ana Rojas",
		},
	}
}

func TestRender(t *testing.T) {
	firma, err := qrcode.Encode("firma", qrcode.Low, 64)
	require.NoError(t, err)

	for _, tipo := range []models.Tipo{models.TipoJAC, models.TipoAutoresolutorio} {
		t.Run(string(tipo), func(t *testing.T) {
			out, err := Render(Input{
				Certificado: certificado(tipo),
				ValidarURL:  "https://juntas.boyaca.gov.co/validar/abc",
				Firma:       &umodels.Firma{Data: firma, Mime: "image/png"},
			})
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
		})
	}

	t.Run("without signature", func(t *testing.T) {
		out, err := Render(Input{Certificado: certificado(models.TipoJVC), ValidarURL: "http://localhost/validar/x"})
		require.NoError(t, err)
		assert.NotEmpty(t, out)
	})
}

func TestCuerpo(t *testing.T) {
	c := certificado(models.TipoAutoresolutorio)
	assert.Contains(t, cuerpo(c), "como Presidenta de la organización comunal JAC Vereda Cañaveral")
	assert.Contains(t, cuerpo(c), "Paipa, provincia de Tundama")

	c.Datos.Cargo = ""
	assert.Contains(t, cuerpo(c), "como dignatario(a)")
}
