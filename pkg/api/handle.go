package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/authcore-id/authd/pkg/account"
	"github.com/authcore-id/authd/pkg/authenticate"
	"github.com/authcore-id/authd/pkg/lifecycle"
	"github.com/authcore-id/authd/pkg/securetoken"
	"github.com/authcore-id/authd/pkg/sessiontoken"
)

// Handler exposes the authentication and credential lifecycle over HTTP.
type Handler struct {
	auth      *authenticate.Service
	lifecycle *lifecycle.Service
	issuer    *sessiontoken.Issuer
	repo      account.Repository
}

// NewHandler wires the HTTP surface to the domain services.
func NewHandler(auth *authenticate.Service, lc *lifecycle.Service, issuer *sessiontoken.Issuer, repo account.Repository) *Handler {
	return &Handler{
		auth:      auth,
		lifecycle: lc,
		issuer:    issuer,
		repo:      repo,
	}
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		renderError(w, r, http.StatusBadRequest, "Username and password are required")
		return
	}

	acct, err := h.auth.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, authenticate.ErrInvalidCredentials):
			renderError(w, r, http.StatusUnauthorized, "Invalid username or password")
		case errors.Is(err, authenticate.ErrEmailNotConfirmed):
			renderError(w, r, http.StatusForbidden, "Email address has not been confirmed")
		case authenticate.IsAccountLocked(err):
			renderError(w, r, http.StatusForbidden, err.Error())
		default:
			slog.Error("Login failed", "err", err)
			renderError(w, r, http.StatusInternalServerError, "An error occurred during login")
		}
		return
	}

	h.renderToken(w, r, acct)
}

// RefreshToken handles GET /refresh-user-token. The caller's current token
// has already been verified by the jwtauth middleware.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromContext(r)
	if err != nil || claims.Email == "" {
		renderError(w, r, http.StatusUnauthorized, "Unauthorized")
		return
	}

	acct, err := h.repo.FindByEmail(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			renderError(w, r, http.StatusUnauthorized, "Unauthorized")
			return
		}
		slog.Error("Failed to load account for token refresh", "err", err)
		renderError(w, r, http.StatusInternalServerError, "An error occurred refreshing the token")
		return
	}

	h.renderToken(w, r, acct)
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		renderError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	_, err := h.lifecycle.Register(r.Context(), lifecycle.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			renderError(w, r, http.StatusConflict, "Email is already registered")
		case errors.Is(err, lifecycle.ErrDeliveryFailed):
			renderError(w, r, http.StatusInternalServerError, "Failed to send confirmation email")
		default:
			slog.Error("Registration failed", "err", err)
			renderError(w, r, http.StatusInternalServerError, "An error occurred during registration")
		}
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, MessageResponse{Message: "Account created. Check your email to confirm your address"})
}

// ConfirmEmail handles POST /confirm-email.
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req ConfirmEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Token == "" {
		renderError(w, r, http.StatusBadRequest, "Email and token are required")
		return
	}

	if err := h.lifecycle.ConfirmEmail(r.Context(), req.Email, req.Token); err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			renderError(w, r, http.StatusNotFound, "Account not found")
		case errors.Is(err, lifecycle.ErrAlreadyConfirmed):
			renderError(w, r, http.StatusConflict, "Email is already confirmed")
		case errors.Is(err, securetoken.ErrInvalidToken):
			renderError(w, r, http.StatusBadRequest, "Invalid or expired confirmation token")
		default:
			slog.Error("Email confirmation failed", "err", err)
			renderError(w, r, http.StatusInternalServerError, "An error occurred confirming the email")
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Email confirmed"})
}

// ResendConfirmation handles POST /resend-email-confirmation/{email}.
func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.ResendConfirmation(r.Context(), email); err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			renderError(w, r, http.StatusNotFound, "Account not found")
		case errors.Is(err, lifecycle.ErrAlreadyConfirmed):
			renderError(w, r, http.StatusConflict, "Email is already confirmed")
		case errors.Is(err, lifecycle.ErrDeliveryFailed):
			renderError(w, r, http.StatusInternalServerError, "Failed to send confirmation email")
		default:
			slog.Error("Resend confirmation failed", "err", err)
			renderError(w, r, http.StatusInternalServerError, "An error occurred sending the confirmation email")
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Confirmation email sent"})
}

// ForgotUsernameOrPassword handles POST /forgot-username-or-password/{email}.
func (h *Handler) ForgotUsernameOrPassword(w http.ResponseWriter, r *http.Request) {
	email, ok := emailParam(w, r)
	if !ok {
		return
	}

	if err := h.lifecycle.ForgotUsernameOrPassword(r.Context(), email); err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			renderError(w, r, http.StatusNotFound, "Account not found")
		case errors.Is(err, lifecycle.ErrNotConfirmed):
			renderError(w, r, http.StatusForbidden, "Email address has not been confirmed")
		case errors.Is(err, lifecycle.ErrDeliveryFailed):
			renderError(w, r, http.StatusInternalServerError, "Failed to send recovery email")
		default:
			slog.Error("Recovery dispatch failed", "err", err)
			renderError(w, r, http.StatusInternalServerError, "An error occurred sending the recovery email")
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Recovery email sent"})
}

// ResetPassword handles POST /reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Token == "" || req.NewPassword == "" {
		renderError(w, r, http.StatusBadRequest, "Email, token, and new password are required")
		return
	}

	if err := h.lifecycle.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			renderError(w, r, http.StatusNotFound, "Account not found")
		case errors.Is(err, lifecycle.ErrNotConfirmed):
			renderError(w, r, http.StatusForbidden, "Email address has not been confirmed")
		case errors.Is(err, securetoken.ErrInvalidToken):
			renderError(w, r, http.StatusBadRequest, "Invalid or expired reset token")
		default:
			slog.Error("Password reset failed", "err", err)
			renderError(w, r, http.StatusInternalServerError, "An error occurred resetting the password")
		}
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Password has been reset"})
}

func (h *Handler) renderToken(w http.ResponseWriter, r *http.Request, acct account.Account) {
	token, err := h.issuer.Issue(acct)
	if err != nil {
		slog.Error("Failed to issue session token", "err", err)
		renderError(w, r, http.StatusInternalServerError, "An error occurred issuing the session token")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{
		Token: token,
		User: UserPayload{
			ID:        acct.ID.String(),
			Username:  acct.Username,
			Email:     acct.Email,
			FirstName: acct.FirstName,
			LastName:  acct.LastName,
			Roles:     acct.Roles,
		},
	})
}

func emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := chi.URLParam(r, "email")
	email, err := url.PathUnescape(raw)
	if err != nil {
		email = raw
	}
	email = strings.TrimSpace(email)
	if email == "" {
		renderError(w, r, http.StatusBadRequest, "Email is required")
		return "", false
	}
	return email, true
}

func renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}
