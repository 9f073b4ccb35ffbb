package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tailorshop/internal/auth"
)

func TestAuthRejects(t *testing.T) {
	refresh, err := auth.GenerateRefreshToken("secret", "user-1", time.Hour, time.Now())
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	expired, err := auth.GenerateAccessToken("secret", auth.Identity{UserID: "user-1", Role: auth.RoleAdmin}, time.Minute, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	cases := map[string]string{
		"missing header": "",
		"wrong scheme":   "Token abc",
		"garbage token":  "Bearer invalid",
		"refresh token":  "Bearer " + refresh,
		"expired token":  "Bearer " + expired,
	}
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not be called")
	}))
	for name, header := range cases {
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", name, rr.Code)
		}
	}
}

func TestAuthValidToken(t *testing.T) {
	identity := auth.Identity{UserID: "user-1", Role: auth.RoleCashier, Username: "wanjiru"}
	token, err := auth.GenerateAccessToken("secret", identity, time.Minute, time.Now())
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := IdentityFromContext(r.Context())
		if !ok || got != identity {
			t.Fatalf("unexpected identity in context: %#v", got)
		}
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
