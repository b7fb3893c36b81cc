package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	healthsvc "coopshares-backend/internal/application/health"
	"coopshares-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, lockErr error) (*fiber.App, *Handlers) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	h := &Handlers{
		Rdb:            rdb,
		Probes:         map[string]healthsvc.Probe{"locks": func(context.Context) error { return lockErr }},
		HealthAdminKey: "test-admin-key",
	}
	app := fiber.New()
	app.Get("/", h.Dashboard)
	app.Post("/health/reset", h.Reset)
	app.Get("/health/json", h.JSON)
	app.Get("/health/ready", h.Ready)
	app.Get("/health/errors", h.Errors)
	return app, h
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v))
}

func TestReset_RequiresAdminKey(t *testing.T) {
	app, _ := newApp(t, nil)
	for _, target := range []string{"/health/reset", "/health/reset?key=wrong"} {
		resp, err := app.Test(httptest.NewRequest("POST", target, nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusForbidden, resp.StatusCode, target)
	}
}

func TestReset_ClearsCounters(t *testing.T) {
	app, h := newApp(t, nil)
	ctx := context.Background()
	require.NoError(t, h.Rdb.Set(ctx, middleware.KeyReqTotal, "5", 0).Err())
	require.NoError(t, h.Rdb.LPush(ctx, middleware.KeyErrorLog, `{"message":"old"}`).Err())

	req := httptest.NewRequest("POST", "/health/reset", nil)
	req.Header.Set("X-Admin-Key", "test-admin-key")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, int64(0), h.Rdb.Exists(ctx, middleware.KeyReqTotal, middleware.KeyErrorLog).Val())
	assert.Equal(t, int64(1), h.Rdb.Exists(ctx, middleware.KeyStartTime).Val())
}

func TestJSON_ReportsDependencies(t *testing.T) {
	app, _ := newApp(t, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/json", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out map[string]interface{}
	decode(t, resp, &out)
	assert.Equal(t, serviceName, out["service"])
	deps := out["dependencies"].(map[string]interface{})
	assert.Contains(t, deps, "locks")
	assert.Contains(t, deps, "redis")
	assert.Contains(t, deps, "database")
}

func TestReady(t *testing.T) {
	app, h := newApp(t, nil)
	h.DB = pingerFunc(func() error { return nil })
	resp, err := app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	app, h = newApp(t, errors.New("lock backend down"))
	h.DB = pingerFunc(func() error { return nil })
	resp, err = app.Test(httptest.NewRequest("GET", "/health/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	var out map[string]interface{}
	decode(t, resp, &out)
	assert.Equal(t, "issue", out["status"])
}

func TestErrors_NewestFirstWithLimit(t *testing.T) {
	app, h := newApp(t, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	var empty []interface{}
	decode(t, resp, &empty)
	assert.Empty(t, empty)

	ctx := context.Background()
	h.Rdb.LPush(ctx, middleware.KeyErrorLog, `{"message":"first"}`)
	h.Rdb.LPush(ctx, middleware.KeyErrorLog, `not json`)
	h.Rdb.LPush(ctx, middleware.KeyErrorLog, `{"message":"second"}`)

	resp, err = app.Test(httptest.NewRequest("GET", "/health/errors", nil))
	require.NoError(t, err)
	var all []map[string]interface{}
	decode(t, resp, &all)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0]["message"])

	resp, err = app.Test(httptest.NewRequest("GET", "/health/errors?limit=1", nil))
	require.NoError(t, err)
	var one []map[string]interface{}
	decode(t, resp, &one)
	require.Len(t, one, 1)
	assert.Equal(t, "second", one[0]["message"])
}

func TestDashboard_ReturnsHTML(t *testing.T) {
	app, _ := newApp(t, nil)
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.MIMETextHTMLCharsetUTF8, resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Coopshares · API Status")
}

type pingerFunc func() error

func (f pingerFunc) Ping() error { return f() }
