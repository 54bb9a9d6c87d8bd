package httpapi

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"juntas/internal/platform/metrics"
	"juntas/pkg/domain"
	dErrors "juntas/pkg/domain-errors"
	"juntas/pkg/platform/httputil"
	authmw "juntas/pkg/platform/middleware/auth"
	"juntas/pkg/testutil"
)

const cookieName = "jac_session"

var validSession = domain.SessionID(uuid.MustParse("6f1c1e0e-8a8e-4d7e-9b1e-2f0a8f5d2c11"))

type fakeSessions struct{}

func (fakeSessions) ResolveSession(_ context.Context, id domain.SessionID) (*authmw.Principal, error) {
	if id != validSession {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "sesión no válida o expirada")
	}
	return &authmw.Principal{SessionID: id, UsuarioID: 7, Rol: domain.RolConsulta}, nil
}

type routes func(r chi.Router)

func (f routes) Register(r chi.Router) { f(r) }

type publicPart struct{}

func (publicPart) RegisterPublic(r chi.Router) {
	r.Get("/certificados/validar/{id}", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": chi.URLParam(r, "id")})
	})
}

func newTestRouter(health map[string]HealthCheck) http.Handler {
	whoami := func(w http.ResponseWriter, r *http.Request) {
		p, _ := authmw.GetPrincipal(r.Context())
		httputil.WriteJSON(w, http.StatusOK, map[string]any{"usuario": int64(p.UsuarioID)})
	}
	return NewRouter(Config{
		BasePath:      "/api",
		CORSOrigins:   []string{"http://localhost:5173"},
		SessionCookie: cookieName,
	}, Deps{
		Logger:   slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
		Metrics:  metrics.NewWithRegisterer(prometheus.NewRegistry()),
		Sessions: fakeSessions{},
		Health:   health,
		Public: []Routes{routes(func(r chi.Router) {
			r.Get("/auth/verify", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
		})},
		PublicParts: []PublicRoutes{publicPart{}},
		Protected: []Routes{routes(func(r chi.Router) {
			r.Route("/certificados", func(r chi.Router) { r.Get("/", whoami) })
		})},
	})
}

func withSession(req *http.Request, id domain.SessionID) *http.Request {
	req.AddCookie(&http.Cookie{Name: cookieName, Value: id.String()})
	return req
}

func TestRouter_Sessions(t *testing.T) {
	r := newTestRouter(nil)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/api/certificados", nil))
	testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = testutil.DoRequest(r, withSession(testutil.NewJSONRequest(t, http.MethodGet, "/api/certificados", nil), domain.NewSessionID()))
	testutil.AssertStatus(t, rr, http.StatusUnauthorized)

	rr = testutil.DoRequest(r, withSession(testutil.NewJSONRequest(t, http.MethodGet, "/api/certificados", nil), validSession))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "usuario", float64(7))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRouter_PublicRoutes(t *testing.T) {
	r := newTestRouter(nil)

	rr := testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/api/certificados/validar/abc", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "id", "abc")

	rr = testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/api/auth/verify", nil))
	testutil.AssertStatus(t, rr, http.StatusNoContent)

	rr = testutil.DoRequest(r, testutil.NewJSONRequest(t, http.MethodGet, "/certificados/validar/abc", nil))
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestRouter_CORSPreflight(t *testing.T) {
	r := newTestRouter(nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/certificados", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := testutil.DoRequest(r, req)

	assert.Equal(t, "http://localhost:5173", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRouter_Health(t *testing.T) {
	rr := testutil.DoRequest(newTestRouter(map[string]HealthCheck{
		"db": func(context.Context) error { return nil },
	}), testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr, "status", "ok")

	rr = testutil.DoRequest(newTestRouter(map[string]HealthCheck{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}), testutil.NewJSONRequest(t, http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	out := testutil.UnmarshalResponse[healthResponse](t, rr)
	assert.Equal(t, "degraded", out.Status)
	require.Contains(t, out.Checks, "redis")
	assert.Equal(t, "connection refused", out.Checks["redis"])
	assert.Equal(t, "ok", out.Checks["db"])
}

func TestRouter_Metrics(t *testing.T) {
	rr := testutil.DoRequest(newTestRouter(nil), testutil.NewJSONRequest(t, http.MethodGet, "/metrics", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
}
