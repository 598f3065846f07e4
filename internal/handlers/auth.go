package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/capoo-pm/apiserver/internal/services"
	"github.com/capoo-pm/apiserver/types"
	"github.com/go-chi/chi/v5"
)

type contextKey string

const contextUserKey contextKey = "user"

// AuthHandler provides registration, login and token refresh endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService) {
	handler := NewAuthHandler(authService)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
}

// RequireAuth resolves the bearer access token to a user and injects it into
// the request context.
func RequireAuth(authService *services.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, services.KindUnauthorized.String(), keyMissingCredentials, nil)
				return
			}

			user, err := authService.Authenticate(r.Context(), tokenString)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), contextUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFromContext(ctx context.Context) (types.User, bool) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	return user, ok
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	user, err := h.authService.Register(r.Context(), types.UserRegistration{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, keyUserRegistered, user)
}

// Login verifies credentials and returns a token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	pair, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, keyLoginSuccess, pair)
}

// Refresh exchanges a refresh token for a new token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, r, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, keyTokenRefreshed, pair)
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,notblank"`
	Password string `json:"password" validate:"required,min=8,maxbytes=72"`
}

func (req *RegisterRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
	req.Name = strings.TrimSpace(req.Name)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (req *LoginRequest) normalize() {
	req.Email = strings.TrimSpace(req.Email)
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
