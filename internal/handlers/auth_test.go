package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"tailorshop/internal/models"
	"tailorshop/internal/services"
)

func TestLoginMapsServiceErrors(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"bad credentials", services.ErrInvalidCredential, http.StatusUnauthorized, "Invalid email or password"},
		{"disabled", services.ErrAccountDisabled, http.StatusForbidden, "Account disabled"},
		{"locked", services.ErrAccountLocked, http.StatusForbidden, "Account locked. Try again later"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := newTestHandler(Deps{Auth: stubAuthService{
				loginFn: func(context.Context, string, string, string) (models.User, services.TokenPair, error) {
					return models.User{}, services.TokenPair{}, tc.err
				},
			}})
			rr := serve(t, handler, http.MethodPost, "/api/auth/login", "", `{"email":"a@b.co","password":"pw"}`)
			if rr.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rr.Code)
			}
			var body map[string]string
			_ = json.Unmarshal(rr.Body.Bytes(), &body)
			if body["error"] != tc.message {
				t.Fatalf("unexpected message %q", body["error"])
			}
		})
	}
}

func TestLoginReturnsTokens(t *testing.T) {
	var gotEmail string
	handler := newTestHandler(Deps{Auth: stubAuthService{
		loginFn: func(_ context.Context, email, _, _ string) (models.User, services.TokenPair, error) {
			gotEmail = email
			return models.User{ID: "u1", Username: "jane", Role: "cashier", IsActive: true},
				services.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: time.Hour}, nil
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/api/auth/login", "", `{"email":"Jane@Shop.co","password":"pw"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if gotEmail != "Jane@Shop.co" {
		t.Fatalf("email not passed through: %q", gotEmail)
	}
	var body struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
		User         struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AccessToken != "access" || body.RefreshToken != "refresh" || body.ExpiresIn != 3600 || body.User.Role != "cashier" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatalf("password field leaked: %s", rr.Body.String())
	}
}

func TestLoginRequiresFields(t *testing.T) {
	handler := newTestHandler(Deps{})
	rr := serve(t, handler, http.MethodPost, "/api/auth/login", "", `{"email":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestRequestResetDoesNotRevealToken(t *testing.T) {
	handler := newTestHandler(Deps{Auth: stubAuthService{
		requestResetFn: func(context.Context, string) (string, error) { return "tok", nil },
	}})
	rr := serve(t, handler, http.MethodPost, "/api/auth/request-reset", "", `{"email":"x@y.co"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "tok") {
		t.Fatalf("token leaked outside development: %s", rr.Body.String())
	}

	handler.Config.AppEnv = "development"
	rr = serve(t, handler, http.MethodPost, "/api/auth/request-reset", "", `{"email":"x@y.co"}`)
	var body map[string]string
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body["reset_token"] != "tok" {
		t.Fatalf("expected token in development, got %s", rr.Body.String())
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	var gotUser string
	handler := newTestHandler(Deps{Auth: stubAuthService{
		changePasswordF: func(_ context.Context, userID, _, _ string) error {
			gotUser = userID
			return services.ErrWrongPassword
		},
	}})
	rr := serve(t, handler, http.MethodPost, "/api/auth/change-password", "tailor", `{"current_password":"x","new_password":"secret1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if gotUser != "tailor-1" {
		t.Fatalf("expected caller id, got %q", gotUser)
	}
}

func TestMeRequiresToken(t *testing.T) {
	handler := newTestHandler(Deps{})
	rr := serve(t, handler, http.MethodGet, "/api/auth/me", "", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestMeLoadsCaller(t *testing.T) {
	handler := newTestHandler(Deps{Users: stubUserStore{
		getByIDFn: func(_ context.Context, userID string) (models.User, error) {
			return models.User{ID: userID, Username: "ann", Role: "admin", IsActive: true}, nil
		},
	}})
	rr := serve(t, handler, http.MethodGet, "/api/auth/me", "admin", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body userResponse
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	if body.ID != "admin-1" || body.Username != "ann" {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}
