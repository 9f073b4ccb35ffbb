package handlers

import (
	"net/http"

	"tailorshop/internal/middleware"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil || req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	user, tokens, err := h.Auth.Login(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		respondServiceError(w, err, "login failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"token_type":    "bearer",
		"expires_in":    int(tokens.ExpiresIn.Seconds()),
		"user":          presentUser(user),
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decode(r, &req); err != nil || req.RefreshToken == "" {
		respondError(w, http.StatusBadRequest, "refresh_token is required")
		return
	}
	token, err := h.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondServiceError(w, err, "unable to refresh token")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.Users.GetByID(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "unable to load user")
		return
	}
	respondJSON(w, http.StatusOK, presentUser(user))
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.Auth.Logout(r.Context(), userID); err != nil {
		respondServiceError(w, err, "logout failed")
		return
	}
	respondMessage(w, http.StatusOK, "Logged out")
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req changePasswordRequest
	if err := decode(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.Auth.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(w, err, "unable to change password")
		return
	}
	respondMessage(w, http.StatusOK, "Password changed")
}

type resetRequest struct {
	Email string `json:"email"`
}

// RequestReset never reveals whether the email is registered. Outside
// development the token would go out by mail, which is not wired here.
func (h *Handler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := decode(r, &req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}
	token, err := h.Auth.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		respondServiceError(w, err, "unable to request reset")
		return
	}
	body := map[string]string{"message": "If the email exists, a reset link was sent"}
	if token != "" && h.Config.AppEnv == "development" {
		body["reset_token"] = token
	}
	respondJSON(w, http.StatusOK, body)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := decode(r, &req); err != nil || req.Token == "" {
		respondError(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := h.Auth.ConsumeResetToken(r.Context(), req.Token, req.NewPassword); err != nil {
		respondServiceError(w, err, "unable to reset password")
		return
	}
	respondMessage(w, http.StatusOK, "Password reset")
}

type verifyRequest struct {
	Token string `json:"token"`
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil || req.Token == "" {
		respondError(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := h.Auth.VerifyEmail(r.Context(), req.Token); err != nil {
		respondServiceError(w, err, "unable to verify email")
		return
	}
	respondMessage(w, http.StatusOK, "Email verified")
}

func (h *Handler) RequestVerification(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	token, err := h.Auth.GenerateVerificationToken(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "unable to create verification token")
		return
	}
	body := map[string]string{"message": "Verification email sent"}
	if h.Config.AppEnv == "development" {
		body["verification_token"] = token
	}
	respondJSON(w, http.StatusOK, body)
}
