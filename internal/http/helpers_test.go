package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"boutique/internal/config"
	"boutique/internal/domain"
	"boutique/internal/http/handlers"
	applog "boutique/internal/log"
	"boutique/internal/repos"
	"boutique/internal/services"
)

const password = "Passw0rd!"

func testConfig() config.Config {
	return config.Config{
		DBDriver:          repos.DriverSQLite,
		DBDSN:             ":memory:",
		CORSOrigins:       "*",
		RateLimit:         1000,
		LoginLimit:        100,
		StoreName:         "Boutique Test",
		Currency:          "KES",
		StoreTZ:           "UTC",
		LowStockThreshold: 5,
	}
}

// newTestApp builds the full app over a fresh in-memory database seeded with
// the demo catalog.
func newTestApp(t *testing.T, mods ...func(*config.Config)) (*fiber.App, *services.Services) {
	t.Helper()
	cfg := testConfig()
	for _, m := range mods {
		m(&cfg)
	}
	db, err := repos.OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := repos.SeedDemoCatalog(context.Background(), db); err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	svc := services.New(db, services.AuthConfig{Secret: "handlers-test-secret-handlers-test", TokenTTL: time.Hour}, services.Options{
		DBTimeout:         time.Second,
		Retries:           1,
		LowStockThreshold: cfg.LowStockThreshold,
	})
	return handlers.NewApp(svc, cfg), svc
}

// call sends a request with an optional bearer token and JSON body and
// returns the response with its body read.
func call(t *testing.T, app *fiber.App, method, path, token, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

func decode(t *testing.T, body string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
}

func login(t *testing.T, app *fiber.App, email string) string {
	t.Helper()
	resp, body := call(t, app, "POST", "/api/v1/auth/login", "", `{"email":"`+email+`","password":"`+password+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d body=%s", email, resp.StatusCode, body)
	}
	var sess struct {
		Token string `json:"token"`
	}
	decode(t, body, &sess)
	if sess.Token == "" {
		t.Fatalf("login %s: empty token", email)
	}
	return sess.Token
}

func productBySKU(t *testing.T, svc *services.Services, sku string) domain.Product {
	t.Helper()
	ps, err := svc.Catalog.ListProducts(context.Background(), sku, "")
	if err != nil || len(ps) != 1 {
		t.Fatalf("product %s: %v (%d found)", sku, err, len(ps))
	}
	return ps[0]
}

// captureLogs routes the process logger into an observer for the test.
func captureLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(applog.SetLogger(zap.New(core)))
	return logs
}

func hasAction(logs *observer.ObservedLogs, action string) bool {
	return logs.FilterMessage(action).Len() > 0
}

func withLoginLimit(n int) func(*config.Config) {
	return func(c *config.Config) { c.LoginLimit = n }
}
