package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "juntas/pkg/domain-errors"
)

func TestParseSerial_Invariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"zero", "0", true},
		{"negative", "-4", true},
		{"not a number", "abc", true},
		{"SQL injection attempt", "1; DROP TABLE juntas;--", true},
		{"oversized input", strings.Repeat("9", 40), true},
		{"valid", "42", false},
		{"valid with spaces", " 7 ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJuntaID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseCertificadoID(t *testing.T) {
	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseCertificadoID(uuid.Nil.String())
		require.Error(t, err)
	})

	t.Run("round trips", func(t *testing.T) {
		id := NewCertificadoID()
		parsed, err := ParseCertificadoID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	})
}

func TestParseRol(t *testing.T) {
	for _, r := range Roles() {
		parsed, err := ParseRol(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, parsed)
	}

	_, err := ParseRol("Superusuario")
	require.Error(t, err)
	assert.True(t, RolMandatario.RequiresSignature())
	assert.False(t, RolAuxiliar.RequiresSignature())
	assert.True(t, RolConsulta.In(RolAdministrador, RolConsulta))
}
