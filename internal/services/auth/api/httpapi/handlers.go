// Package httpapi exposes the auth service over the JSON API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/auth/app"
	"github.com/questforge/questforge/internal/services/auth/user"
	"github.com/questforge/questforge/internal/transport/httpapi"
)

// Handler serves the auth endpoints.
type Handler struct {
	service  *app.Service
	validate *validator.Validate
	logger   *zap.Logger
}

// NewHandler wires the auth HTTP surface.
func NewHandler(service *app.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register mounts the auth routes on the API root. Authenticated
// routes receive the provided middleware chain.
func (h *Handler) Register(router *mux.Router, authenticated func(http.Handler) http.Handler) {
	identity := func(next http.Handler) http.Handler { return next }
	h.RegisterWithLimits(router, authenticated, identity, identity)
}

// RegisterWithLimits mounts the auth routes with per-class rate
// limiting: credential endpoints get authLimit, the password-reset
// pair gets the stricter strictLimit.
func (h *Handler) RegisterWithLimits(router *mux.Router, authenticated, authLimit, strictLimit func(http.Handler) http.Handler) {
	router.Handle("/users/", authLimit(http.HandlerFunc(h.register))).Methods(http.MethodPost)
	router.Handle("/token", authLimit(http.HandlerFunc(h.login))).Methods(http.MethodPost)
	router.Handle("/auth/refresh", authLimit(http.HandlerFunc(h.refresh))).Methods(http.MethodPost)
	router.Handle("/auth/logout", authLimit(http.HandlerFunc(h.logout))).Methods(http.MethodPost)
	router.Handle("/auth/forgot-password", strictLimit(http.HandlerFunc(h.forgotPassword))).Methods(http.MethodPost)
	router.Handle("/auth/reset-password", strictLimit(http.HandlerFunc(h.resetPassword))).Methods(http.MethodPost)
	router.HandleFunc("/auth/password-policy", h.passwordPolicy).Methods(http.MethodGet)
	router.Handle("/auth/cleanup-sessions", authenticated(http.HandlerFunc(h.cleanupSessions))).Methods(http.MethodPost)
	router.Handle("/users/me", authenticated(http.HandlerFunc(h.profile))).Methods(http.MethodGet)
	router.Handle("/users/profile", authenticated(http.HandlerFunc(h.profile))).Methods(http.MethodGet)
	router.Handle("/users/profile", authenticated(http.HandlerFunc(h.updateProfile))).Methods(http.MethodPatch)
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=30"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

type passwordPolicyResponse struct {
	MinLength           int  `json:"min_length"`
	MaxLength           int  `json:"max_length"`
	RequireUppercase    bool `json:"require_uppercase"`
	RequireLowercase    bool `json:"require_lowercase"`
	RequireDigits       bool `json:"require_digits"`
	RequireSpecial      bool `json:"require_special"`
	MaxConsecutiveChars int  `json:"max_consecutive_chars"`
}

type userResponse struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"email_verified"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type sessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type loginResponse struct {
	User    userResponse    `json:"user"`
	Session sessionResponse `json:"session"`
}

func toUserResponse(account user.User) userResponse {
	return userResponse{
		ID:            account.ID,
		Username:      account.Username,
		Email:         account.Email,
		EmailVerified: account.EmailVerified,
		LastLogin:     account.LastLogin,
		CreatedAt:     account.CreatedAt,
	}
}

func toSessionResponse(session app.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(session.AccessExpiresAt).Seconds()),
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	account, err := h.service.Register(r.Context(), app.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusCreated, toUserResponse(account))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	account, session, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, loginResponse{
		User:    toUserResponse(account),
		Session: toSessionResponse(session),
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	session, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	// Token delivery is out of band. The response body never reveals
	// whether the address exists.
	if _, err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "if the email is registered, a reset link has been sent",
	})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]string{"message": "password has been reset"})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpapi.ClaimsFromContext(r.Context())
	if !ok {
		httpapi.WriteError(w, r, h.logger, apperrors.New(apperrors.CodeAuthAccessTokenMissing, "authentication required"))
		return
	}
	account, err := h.service.Profile(r.Context(), claims.UserID)
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toUserResponse(account))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpapi.ClaimsFromContext(r.Context())
	if !ok {
		httpapi.WriteError(w, r, h.logger, apperrors.New(apperrors.CodeAuthAccessTokenMissing, "authentication required"))
		return
	}

	var req updateProfileRequest
	if err := httpapi.DecodeJSON(w, r, &req); err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpapi.WriteError(w, r, h.logger, httpapi.ValidationError(err))
		return
	}

	account, err := h.service.UpdateProfile(r.Context(), claims.UserID, app.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, toUserResponse(account))
}

func (h *Handler) passwordPolicy(w http.ResponseWriter, r *http.Request) {
	policy := h.service.PasswordPolicy()
	httpapi.WriteJSON(w, http.StatusOK, passwordPolicyResponse{
		MinLength:           policy.MinLength,
		MaxLength:           policy.MaxLength,
		RequireUppercase:    policy.RequireUppercase,
		RequireLowercase:    policy.RequireLowercase,
		RequireDigits:       policy.RequireDigits,
		RequireSpecial:      policy.RequireSpecial,
		MaxConsecutiveChars: policy.MaxConsecutiveChars,
	})
}

func (h *Handler) cleanupSessions(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.CleanupExpired(r.Context())
	if err != nil {
		httpapi.WriteError(w, r, h.logger, err)
		return
	}
	httpapi.WriteJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}
