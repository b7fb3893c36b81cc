package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"coopshares-backend/internal/config"
	"coopshares-backend/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type client struct {
	t      *testing.T
	app    *fiber.App
	cookie string
}

func (c *client) do(method, path string, body interface{}) (int, map[string]interface{}) {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	resp, err := c.app.Test(req, -1)
	require.NoError(c.t, err)
	for _, sc := range resp.Header.Values("Set-Cookie") {
		if strings.HasPrefix(sc, middleware.SessionCookieName+"=") {
			c.cookie = strings.SplitN(sc, ";", 2)[0]
		}
	}
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func setupApp(t *testing.T) *fiber.App {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	cfg := &config.Config{
		Env:            "test",
		RedisURL:       "redis://" + mr.Addr(),
		DatabaseURL:    "sqlite::memory:",
		AutoMigrate:    true,
		LockBackend:    config.LockBackendRedis,
		LockTTL:        5e9,
		LockWait:       1e9,
		HealthAdminKey: "k",
	}
	app, db, rdb, err := CreateApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, db)
	t.Cleanup(func() { rdb.Close() })
	return app
}

func (c *client) login(userName string) {
	code, _ := c.do("POST", "/api/v1/auth/login", map[string]string{"user_name": userName, "password": "s3cret!pass"})
	require.Equal(c.t, fiber.StatusOK, code)
}

func register(t *testing.T, c *client, userName, national string) {
	code, _ := c.do("POST", "/api/v1/accounts/register", map[string]string{
		"user_name": userName, "password": "s3cret!pass", "full_name": userName, "national_number": national,
	})
	require.Equal(t, fiber.StatusCreated, code)
}

func TestHealthAndMetrics(t *testing.T) {
	app := setupApp(t)
	c := &client{t: t, app: app}

	code, out := c.do("GET", "/health/json", nil)
	require.Equal(t, fiber.StatusOK, code)
	deps := out["dependencies"].(map[string]interface{})
	assert.Contains(t, deps, "locks")

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEndToEnd_CoopProjectMarketplace(t *testing.T) {
	app := setupApp(t)
	founder := &client{t: t, app: app}
	member := &client{t: t, app: app}

	register(t, founder, "founder", "0011111111")
	register(t, member, "member", "0022222222")
	founder.login("founder")
	member.login("member")

	code, _ := member.do("POST", "/api/v1/projects", map[string]interface{}{})
	assert.Equal(t, fiber.StatusForbidden, code)

	code, out := founder.do("POST", "/api/v1/coops", map[string]interface{}{"name": "Saffron", "price_per_share": 10})
	require.Equal(t, fiber.StatusCreated, code)
	coopID := out["data"].(map[string]interface{})["cooperative_id"].(string)

	code, out = founder.do("GET", "/api/v1/auth/me", nil)
	require.Equal(t, fiber.StatusOK, code)
	user := out["data"].(map[string]interface{})["user"].(map[string]interface{})
	assert.Equal(t, coopID, user["board_cooperative_id"])

	code, out = founder.do("POST", "/api/v1/projects", map[string]interface{}{
		"cooperative_id": coopID, "title": "Well", "goal_amount": 100, "shares_to_distribute": 10,
	})
	require.Equal(t, fiber.StatusCreated, code)
	projectID := out["data"].(map[string]interface{})["project_id"].(string)

	code, _ = founder.do("POST", "/api/v1/projects/"+projectID+"/activate", nil)
	require.Equal(t, fiber.StatusOK, code)
	code, _ = member.do("POST", "/api/v1/projects/"+projectID+"/contributions", map[string]int64{"amount": 100})
	require.Equal(t, fiber.StatusCreated, code)
	code, _ = founder.do("POST", "/api/v1/projects/"+projectID+"/finalize", nil)
	require.Equal(t, fiber.StatusOK, code)

	code, out = member.do("GET", "/api/v1/me/holdings", nil)
	require.Equal(t, fiber.StatusOK, code)
	rows := out["data"].([]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, float64(10), rows[0].(map[string]interface{})["quantity"])

	code, _ = member.do("POST", "/api/v1/marketplace/listings", map[string]interface{}{"cooperative_id": coopID, "quantity": 4})
	require.Equal(t, fiber.StatusCreated, code)
	code, out = founder.do("POST", "/api/v1/marketplace/coops/"+coopID+"/buy", map[string]interface{}{"quantity": 3, "source": "secondary"})
	require.Equal(t, fiber.StatusCreated, code)
	assert.Equal(t, float64(30), out["data"].(map[string]interface{})["total_price"])

	code, _ = member.do("GET", "/api/v1/reports/coops/"+coopID+"/shareholders.csv", nil)
	assert.Equal(t, fiber.StatusForbidden, code)

	code, _ = member.do("DELETE", "/api/v1/auth/logout", nil)
	require.Equal(t, fiber.StatusOK, code)
	code, _ = member.do("GET", "/api/v1/me/holdings", nil)
	assert.Equal(t, fiber.StatusUnauthorized, code)
}
