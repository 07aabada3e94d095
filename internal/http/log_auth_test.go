package handlers_test

import (
	"net/http"
	"testing"
)

func TestAuthLogging(t *testing.T) {
	app, _ := newTestApp(t)
	logs := captureLogs(t)

	resp, _ := call(t, app, "POST", "/api/v1/auth/login", "", `{"email":"tom@boutique.test","password":"nope-nope"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	fails := logs.FilterMessage("auth.login.fail").All()
	if len(fails) != 1 {
		t.Fatalf("expected one auth.login.fail, got %d", len(fails))
	}
	if fails[0].ContextMap()["kind"] != "security" {
		t.Fatalf("login failure should be a security event: %v", fails[0].ContextMap())
	}
	fields, _ := fails[0].ContextMap()["fields"].(map[string]any)
	if fields["email"] != "tom@boutique.test" {
		t.Fatalf("email not logged: %v", fields)
	}
	for k := range fields {
		if k == "password" {
			t.Fatal("password must never be logged")
		}
	}

	tok := login(t, app, "tom@boutique.test")
	ok := logs.FilterMessage("auth.login.success").All()
	if len(ok) != 1 || ok[0].ContextMap()["kind"] != "audit" {
		t.Fatalf("expected one audit auth.login.success, got %d", len(ok))
	}
	if ok[0].ContextMap()["user_id"] != "u-tom" {
		t.Fatalf("login success should carry the user id: %v", ok[0].ContextMap())
	}

	call(t, app, "POST", "/api/v1/auth/logout", tok, "")
	if !hasAction(logs, "auth.logout") {
		t.Fatal("expected auth.logout audit")
	}

	call(t, app, "GET", "/api/v1/auth/me", tok, "")
	if !hasAction(logs, "auth.token.reject") {
		t.Fatal("expected auth.token.reject for a revoked token")
	}
}

func TestLoginThrottleIsLogged(t *testing.T) {
	app, _ := newTestApp(t, withLoginLimit(1))
	logs := captureLogs(t)

	for i := 0; i < 2; i++ {
		call(t, app, "POST", "/api/v1/auth/login", "", `{"email":"tom@boutique.test","password":"nope-nope"}`)
	}
	if !hasAction(logs, "rate.login.hit") {
		t.Fatal("expected rate.login.hit")
	}
}
