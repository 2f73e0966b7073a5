package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/online_wallet/internal/config"
	"github.com/congo-pay/online_wallet/internal/ledger"
	"github.com/congo-pay/online_wallet/internal/logging"
	"github.com/congo-pay/online_wallet/internal/middleware"
	"github.com/congo-pay/online_wallet/internal/problem"
	"github.com/congo-pay/online_wallet/internal/routes"
)

func testConfig() config.Config {
	return config.Config{
		AppName:            "OnlineWallet",
		AppEnv:             "test",
		Port:               "0",
		IdempotencyTTL:     time.Minute,
		RateLimitPerMinute: 1000,
		AppendRetries:      5,
	}
}

func newTestServer(t *testing.T, cache *redis.Client) *Server {
	t.Helper()
	srv, err := New(routes.Deps{
		Cfg:    testConfig(),
		Cache:  cache,
		Logger: logging.Discard(),
		Ledger: ledger.NewInMemory(),
	})
	require.NoError(t, err)
	return srv
}

func call(t *testing.T, srv *Server, method, path, body string, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := srv.App().Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var decoded map[string]any
	require.NoError(t, decoder.Decode(&decoded), "body: %s", raw)
	return resp, decoded
}

func TestWalletScenario(t *testing.T) {
	srv := newTestServer(t, nil)

	_, body := call(t, srv, fiber.MethodGet, "/api/v1/onlinewallet/balance", "", nil)
	assert.Equal(t, json.Number("0"), body["amount"])

	_, body = call(t, srv, fiber.MethodPost, "/api/v1/onlinewallet/deposit", `{"amount": 50}`, nil)
	assert.Equal(t, json.Number("50"), body["amount"])

	resp, body := call(t, srv, fiber.MethodPost, "/api/v1/onlinewallet/withdraw", `{"amount": 1000}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, problem.MIMEProblemJSON, resp.Header.Get(fiber.HeaderContentType))
	assert.Equal(t, "Invalid withdrawal amount. There are insufficient funds.", body["title"])
	assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), body["traceId"])

	_, body = call(t, srv, fiber.MethodGet, "/api/v1/onlinewallet/balance", "", nil)
	assert.Equal(t, json.Number("50"), body["amount"])
}

func TestUnknownRouteRendersProblem(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := call(t, srv, fiber.MethodGet, "/api/v1/onlinewallet/history", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, json.Number(strconv.Itoa(http.StatusNotFound)), body["status"])
	assert.NotEmpty(t, body["title"])
}

func TestRetriedDepositIsAppliedOnce(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })
	srv := newTestServer(t, cache)

	headers := map[string]string{middleware.IdempotencyKeyHeader: "dep-1"}
	for i := 0; i < 3; i++ {
		resp, body := call(t, srv, fiber.MethodPost, "/api/v1/onlinewallet/deposit", `{"amount": "10.50"}`, headers)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, json.Number("10.5"), body["amount"])
	}

	_, body := call(t, srv, fiber.MethodGet, "/api/v1/onlinewallet/balance", "", nil)
	assert.Equal(t, json.Number("10.5"), body["amount"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := call(t, srv, fiber.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	status, ok := body["status"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "disabled", status["postgres"])
	assert.Equal(t, "ok", status["ledger"])
}

func TestSetupRequiresLedger(t *testing.T) {
	_, err := New(routes.Deps{Cfg: testConfig(), Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestUnversionedWalletRoutes(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, body := call(t, srv, fiber.MethodPost, "/OnlineWallet/Deposit", `{"amount": 200}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, json.Number("200"), body["amount"])

	resp, body = call(t, srv, fiber.MethodPost, "/OnlineWallet/Withdraw", `{"amount": 30}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, json.Number("170"), body["amount"])

	resp, body = call(t, srv, fiber.MethodGet, "/OnlineWallet/Balance", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, json.Number("170"), body["amount"])

	// both mounts share one ledger
	_, body = call(t, srv, fiber.MethodGet, "/api/v1/onlinewallet/balance", "", nil)
	assert.Equal(t, json.Number("170"), body["amount"])
}
