package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFecha_AddYears(t *testing.T) {
	assert.Equal(t, "2028-03-15", NewFecha(2024, 3, 15).AddYears(4).String())
	assert.Equal(t, "2028-02-29", NewFecha(2024, 2, 29).AddYears(4).String())
	assert.Equal(t, "2025-02-28", NewFecha(2024, 2, 29).AddYears(1).String())
}

func TestFecha_YearsAt(t *testing.T) {
	birth := NewFecha(2000, 6, 15)
	assert.Equal(t, 23, birth.YearsAt(NewFecha(2024, 6, 14)))
	assert.Equal(t, 24, birth.YearsAt(NewFecha(2024, 6, 15)))
	assert.Equal(t, 24, birth.YearsAt(NewFecha(2024, 12, 1)))
}

func TestFecha_JSON(t *testing.T) {
	type body struct {
		Inicio Fecha `json:"inicio"`
		Fin    Fecha `json:"fin"`
	}
	var b body
	require.NoError(t, json.Unmarshal([]byte(`{"inicio":"2024-01-10","fin":"2024-01-10T15:04:05Z"}`), &b))
	assert.Equal(t, NewFecha(2024, 1, 10), b.Inicio)
	assert.True(t, b.Inicio.Equal(b.Fin))

	out, err := json.Marshal(body{Inicio: NewFecha(2023, 12, 1)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"inicio":"2023-12-01","fin":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"inicio":"10/01/2024"}`), &b))
}

func TestFecha_ScanValue(t *testing.T) {
	var f Fecha
	require.NoError(t, f.Scan(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-05-02", f.String())

	v, err := f.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-05-02", v)

	require.NoError(t, f.Scan(nil))
	assert.True(t, f.IsZero())
	v, err = f.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
