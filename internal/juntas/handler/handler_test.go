package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmodels "juntas/internal/catalogo/models"
	csvc "juntas/internal/catalogo/service"
	cstore "juntas/internal/catalogo/store"
	"juntas/internal/juntas/models"
	"juntas/internal/juntas/service"
	"juntas/internal/juntas/store"
	lmodels "juntas/internal/lugares/models"
	lsvc "juntas/internal/lugares/service"
	lstore "juntas/internal/lugares/store"
	"juntas/pkg/domain"
	"juntas/pkg/testutil"
)

type env struct {
	router   http.Handler
	tipo     int64
	sogamoso int64
}

func id64(v int64) *int64 { return &v }

func newEnv(t *testing.T) env {
	t.Helper()
	ctx := context.Background()
	catalogo := csvc.New(cstore.NewInMemory())
	tipo, err := catalogo.Create(ctx, cmodels.KindTipoJunta, cmodels.ItemRequest{Nombre: "Junta de Vivienda Comunitaria", Codigo: "JVC"})
	require.NoError(t, err)

	lugares := lsvc.New(lstore.NewInMemory())
	dep, err := lugares.Create(ctx, lmodels.LugarRequest{Nombre: "Boyacá", Tipo: "Departamento"})
	require.NoError(t, err)
	prov, err := lugares.Create(ctx, lmodels.LugarRequest{Nombre: "Sugamuxi", Tipo: "Provincia", PadreID: id64(int64(dep.ID))})
	require.NoError(t, err)
	sogamoso, err := lugares.Create(ctx, lmodels.LugarRequest{Nombre: "Sogamoso", Tipo: "Municipio", PadreID: id64(int64(prov.ID))})
	require.NoError(t, err)

	svc := service.New(store.NewInMemory(), catalogo, lugares)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	return env{router: r, tipo: tipo.ID, sogamoso: int64(sogamoso.ID)}
}

func (e env) body(personeria string) map[string]any {
	return map[string]any{
		"RazonSocial":           "JVC Urbanización El Sol",
		"NumPersoneriaJuridica": personeria,
		"FechaCreacion":         "2004-02-29",
		"Zona":                  "urbana",
		"FechaInicioPeriodo":    "2024-02-29",
		"TipoJuntaID":           e.tipo,
		"LugarID":               e.sogamoso,
	}
}

func (e env) create(t *testing.T, personeria string) *models.Junta {
	t.Helper()
	req := testutil.AsRol(testutil.NewJSONRequest(t, http.MethodPost, "/juntas", e.body(personeria)), 3, domain.RolAuxiliar)
	rr := testutil.DoRequest(e.router, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.Junta](t, rr)
}

func TestCreateJunta(t *testing.T) {
	e := newEnv(t)

	t.Run("derives the end of a leap day period", func(t *testing.T) {
		j := e.create(t, "PJ-77")
		assert.Equal(t, "2028-02-29", j.FechaFinPeriodo.String())
	})

	t.Run("mismatched end date", func(t *testing.T) {
		body := e.body("PJ-78")
		body["FechaFinPeriodo"] = "2027-01-01"
		rr := testutil.DoRequest(e.router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/juntas", body)))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
	})

	t.Run("malformed date", func(t *testing.T) {
		body := e.body("PJ-79")
		body["FechaCreacion"] = "29/02/2004"
		rr := testutil.DoRequest(e.router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/juntas", body)))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("consulta cannot create", func(t *testing.T) {
		req := testutil.AsRol(testutil.NewJSONRequest(t, http.MethodPost, "/juntas", e.body("PJ-80")), 9, domain.RolConsulta)
		rr := testutil.DoRequest(e.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})
}

func TestGetJunta(t *testing.T) {
	e := newEnv(t)
	j := e.create(t, "PJ-1")

	req := testutil.AsRol(testutil.NewJSONRequest(t, http.MethodGet, "/juntas/"+j.ID.String(), nil), 9, domain.RolConsulta)
	rr := testutil.DoRequest(e.router, req)
	testutil.AssertStatus(t, rr, http.StatusOK)
	d := testutil.UnmarshalResponse[map[string]any](t, rr)
	assert.Equal(t, "Sogamoso", (*d)["Municipio"])
	assert.Equal(t, "Sugamuxi", (*d)["Provincia"])
	assert.Equal(t, "JVC", (*d)["CodigoTipoJunta"])
	assert.Equal(t, "activo", (*d)["Estado"])
	assert.Equal(t, "PJ-1", (*d)["NumPersoneriaJuridica"])

	rr = testutil.DoRequest(e.router, testutil.NewJSONRequest(t, http.MethodGet, "/juntas/abc", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.DoRequest(e.router, testutil.NewJSONRequest(t, http.MethodGet, "/juntas/999", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
}

func TestCambiarPeriodoEndpoint(t *testing.T) {
	e := newEnv(t)
	j := e.create(t, "PJ-2")

	path := "/juntas/" + j.ID.String() + "/cambiar-periodo"
	rr := testutil.DoRequest(e.router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{
		"FechaInicioPeriodo": "2028-03-01",
	})))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	next := testutil.UnmarshalResponse[models.Junta](t, rr)
	require.NotNil(t, next.JuntaAnteriorID)
	assert.Equal(t, j.ID, *next.JuntaAnteriorID)

	rr = testutil.DoRequest(e.router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodPost, path, map[string]any{
		"FechaInicioPeriodo": "2032-03-01",
	})))
	testutil.AssertStatusAndError(t, rr, http.StatusConflict, "conflict")

	rr = testutil.DoRequest(e.router, testutil.NewJSONRequest(t, http.MethodGet, "/juntas/"+j.ID.String()+"/historial", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	hist := testutil.UnmarshalResponse[[]models.Junta](t, rr)
	require.Len(t, *hist, 2)
	assert.Equal(t, next.ID, (*hist)[0].ID)

	rr = testutil.DoRequest(e.router, testutil.NewJSONRequest(t, http.MethodGet, "/juntas?activo=true", nil))
	list := testutil.UnmarshalResponse[[]models.Junta](t, rr)
	require.Len(t, *list, 1)
	assert.Equal(t, next.ID, (*list)[0].ID)
}

func TestVerificarPersoneria(t *testing.T) {
	e := newEnv(t)
	j := e.create(t, "PJ-3")

	rr := testutil.DoRequest(e.router, testutil.NewJSONRequest(t, http.MethodGet, "/juntas/verificar-personeria?numero=pj-3", nil))
	testutil.AssertJSONContains(t, rr, "disponible", false)

	rr = testutil.DoRequest(e.router, testutil.NewJSONRequest(t, http.MethodGet,
		"/juntas/verificar-personeria?numero=PJ-3&excluir="+j.ID.String(), nil))
	testutil.AssertJSONContains(t, rr, "disponible", true)

	rr = testutil.DoRequest(e.router, testutil.NewJSONRequest(t, http.MethodGet, "/juntas/verificar-personeria", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")
}

func TestDeleteRequiresAdministrador(t *testing.T) {
	e := newEnv(t)
	j := e.create(t, "PJ-4")

	req := testutil.AsRol(testutil.NewJSONRequest(t, http.MethodDelete, "/juntas/"+j.ID.String(), nil), 3, domain.RolAuxiliar)
	testutil.AssertStatus(t, testutil.DoRequest(e.router, req), http.StatusForbidden)

	rr := testutil.DoRequest(e.router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodDelete, "/juntas/"+j.ID.String(), nil)))
	testutil.AssertStatus(t, rr, http.StatusNoContent)
}
