package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"group-task-tracker/internal/monitoring"
	"group-task-tracker/internal/transport/http/dto"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func authApp(issuer string) *fiber.App {
	app := fiber.New()
	app.Use(Auth(zap.NewNop().Sugar(), secret, issuer))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		caller, err := CallerFrom(c)
		if err != nil {
			return c.SendStatus(http.StatusTeapot)
		}
		return c.JSON(fiber.Map{"id": caller.UserID, "name": caller.Name})
	})
	return app
}

func TestAuthAcceptsValidToken(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, secret, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		Name:             "Ann",
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := authApp("").Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "u1", body["id"])
	require.Equal(t, "Ann", body["name"])
}

func TestAuthRejects(t *testing.T) {
	valid := jwt.RegisteredClaims{Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}

	tests := []struct {
		name   string
		header string
		issuer string
	}{
		{name: "missing header"},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "garbage", header: "Bearer not-a-jwt"},
		{name: "wrong key", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), Claims{RegisteredClaims: valid})},
		{name: "wrong alg", header: "Bearer " + sign(t, jwt.SigningMethodHS512, secret, Claims{RegisteredClaims: valid})},
		{name: "expired", header: "Bearer " + sign(t, jwt.SigningMethodHS256, secret, Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}})},
		{name: "no subject", header: "Bearer " + sign(t, jwt.SigningMethodHS256, secret, Claims{Name: "anon"})},
		{name: "wrong issuer", issuer: "tracker", header: "Bearer " + sign(t, jwt.SigningMethodHS256, secret, Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: "u1", Issuer: "someone-else",
		}})},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := authApp(tt.issuer).Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var body dto.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, dto.CodeUnauthorized, body.Error.Code)
		})
	}
}

type observed struct {
	method, route string
	status        int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observed
}

func (r *recordingObserver) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, observed{method: method, route: route, status: status})
}

func TestMetricsUsesRoutePattern(t *testing.T) {
	obs := &recordingObserver{}
	perf := monitoring.NewPerfBuffer(10)

	app := fiber.New()
	app.Use(Metrics(obs, perf))
	app.Get("/api/tasks/:taskId/history", func(c *fiber.Ctx) error {
		return c.Status(http.StatusAccepted).SendString("ok")
	})

	for _, id := range []string{"a", "b"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/tasks/"+id+"/history", nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	require.Len(t, obs.seen, 2)
	for _, o := range obs.seen {
		require.Equal(t, observed{method: http.MethodGet, route: "/api/tasks/:taskId/history", status: http.StatusAccepted}, o)
	}

	summary := perf.Summary()
	require.Equal(t, 2, summary.Count)
	require.Equal(t, 2, summary.RouteCounts["GET /api/tasks/:taskId/history"])
}

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	app := fiber.New()
	app.Use(RequestLogger(zap.New(core).Sugar()))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Get("/bad", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusBadRequest) })
	app.Get("/boom", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	require.Equal(t, zapcore.InfoLevel, entries[0].Level)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	require.Equal(t, "/bad", entries[1].ContextMap()["route"])
	require.EqualValues(t, http.StatusBadRequest, entries[1].ContextMap()["status"])
}

func TestMetricsKeepsMethodsAcrossRequests(t *testing.T) {
	perf := monitoring.NewPerfBuffer(10)

	app := fiber.New()
	app.Use(Metrics(nil, perf))
	app.Get("/items", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	app.Delete("/items", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusNoContent) })

	for _, method := range []string{http.MethodDelete, http.MethodGet, http.MethodDelete} {
		resp, err := app.Test(httptest.NewRequest(method, "/items", nil))
		require.NoError(t, err)
		resp.Body.Close()
	}

	summary := perf.Summary()
	require.Equal(t, map[string]int{"DELETE /items": 2, "GET /items": 1}, summary.RouteCounts)
}
