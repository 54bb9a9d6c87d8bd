package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juntas/internal/lugares/models"
	"juntas/internal/lugares/service"
	"juntas/internal/lugares/store"
	"juntas/pkg/domain"
	"juntas/pkg/testutil"
)

func newLugaresRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(store.NewInMemory())
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func create(t *testing.T, router http.Handler, body map[string]any) *models.Lugar {
	t.Helper()
	rr := testutil.DoRequest(router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/lugares", body)))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	return testutil.UnmarshalResponse[models.Lugar](t, rr)
}

func TestLugaresHierarchyEndpoints(t *testing.T) {
	router := newLugaresRouter(t)

	boyaca := create(t, router, map[string]any{"nombre": "Boyacá", "tipo": "Departamento"})
	centro := create(t, router, map[string]any{"nombre": "Centro", "tipo": "Provincia", "padreId": boyaca.ID})
	create(t, router, map[string]any{"nombre": "Tunja", "tipo": "Municipio", "padreId": centro.ID, "codigoDane": "15001"})

	rr := testutil.DoRequest(router, testutil.AsRol(
		testutil.NewJSONRequest(t, http.MethodGet, "/lugares/"+centro.ID.String()+"/hijos", nil), 7, domain.RolConsulta))
	testutil.AssertStatus(t, rr, http.StatusOK)
	hijos := testutil.UnmarshalResponse[[]models.Lugar](t, rr)
	require.Len(t, *hijos, 1)
	assert.Equal(t, "Tunja", (*hijos)[0].Nombre)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/lugares?tipo=Provincia", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	provincias := testutil.UnmarshalResponse[[]models.Lugar](t, rr)
	assert.Len(t, *provincias, 1)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/lugares/arbol", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
}

func TestLugaresRejectsInvalidHierarchy(t *testing.T) {
	router := newLugaresRouter(t)
	boyaca := create(t, router, map[string]any{"nombre": "Boyacá", "tipo": "Departamento"})

	rr := testutil.DoRequest(router, testutil.AsAdmin(testutil.NewJSONRequest(t, http.MethodPost, "/lugares", map[string]any{
		"nombre": "Tunja", "tipo": "Municipio", "padreId": boyaca.ID,
	})))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "validation_error")

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodGet, "/lugares?tipo=Vereda", nil))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestLugaresWritesRequireAdministrador(t *testing.T) {
	router := newLugaresRouter(t)
	req := testutil.AsRol(testutil.NewJSONRequest(t, http.MethodPost, "/lugares", map[string]any{
		"nombre": "Boyacá", "tipo": "Departamento",
	}), 2, domain.RolMandatario)
	rr := testutil.DoRequest(router, req)
	testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
}
