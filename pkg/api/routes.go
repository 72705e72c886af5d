package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"

	"github.com/authcore-id/authd/pkg/sessiontoken"
)

// Routes mounts the public and token-protected endpoints. The jwtauth
// verifier must share the secret and algorithm the session issuer signs
// with.
func Routes(h *Handler, tokenAuth *jwtauth.JWTAuth) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/confirm-email", h.ConfirmEmail)
		r.Post("/resend-email-confirmation/{email}", h.ResendConfirmation)
		r.Post("/forgot-username-or-password/{email}", h.ForgotUsernameOrPassword)
		r.Post("/reset-password", h.ResetPassword)
	})

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Get("/refresh-user-token", h.RefreshToken)
	})

	return r
}

func claimsFromContext(r *http.Request) (sessiontoken.Claims, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return sessiontoken.Claims{}, err
	}

	email, _ := claims["email"].(string)
	if email == "" {
		return sessiontoken.Claims{}, fmt.Errorf("token missing email claim")
	}
	return sessiontoken.Claims{Email: email}, nil
}
