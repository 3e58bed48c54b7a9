package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/regnet/property-registration/backend/pkg/common"
	"github.com/regnet/property-registration/backend/pkg/common/api"
	"github.com/regnet/property-registration/backend/services/registry-auth/models"
)

const (
	issuer            = "regnet-auth-service"
	minPasswordLength = 8
)

type Service struct {
	accounts   AccountStore
	secret     []byte
	ttl        time.Duration
	registrars map[string]bool
	logger     *zap.Logger
	now        func() time.Time
}

func NewService(accounts AccountStore, cfg *common.Config, logger *zap.Logger) *Service {
	registrars := make(map[string]bool, len(cfg.RegistrarAccounts))
	for _, name := range cfg.RegistrarAccounts {
		registrars[name] = true
	}
	return &Service{
		accounts:   accounts,
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.TokenTTL,
		registrars: registrars,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *Service) roleFor(username string) string {
	if s.registrars[username] {
		return "registrar"
	}
	return "participant"
}

func (s *Service) issue(username, role string) (models.TokenResponse, error) {
	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := common.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return models.TokenResponse{}, err
	}
	return models.TokenResponse{Token: signed, ExpiresAt: expiresAt.Unix()}, nil
}

func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetReqID(r.Context())
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", traceID)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || len(req.Password) < minPasswordLength {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "username and a password of at least 8 characters are required", traceID)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to hash password", traceID)
		return
	}

	account := &models.Account{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         s.roleFor(req.Username),
		Status:       "ACTIVE",
	}
	err = s.accounts.Create(r.Context(), account)
	if errors.Is(err, ErrAccountExists) {
		api.WriteError(w, http.StatusConflict, "ACCOUNT_EXISTS", "username is taken", traceID)
		return
	}
	if err != nil {
		s.logger.Error("failed to create account", zap.String("username", req.Username), zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "database error", traceID)
		return
	}

	s.logger.Info("account registered", zap.String("username", account.Username), zap.String("role", account.Role))
	api.WriteSuccess(w, http.StatusCreated, map[string]string{"username": account.Username, "role": account.Role})
}

func (s *Service) LoginHandler(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetReqID(r.Context())
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", traceID)
		return
	}

	account, err := s.accounts.Find(r.Context(), strings.TrimSpace(req.Username))
	if errors.Is(err, ErrAccountNotFound) {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", traceID)
		return
	}
	if err != nil {
		s.logger.Error("failed to load account", zap.Error(err))
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "database error", traceID)
		return
	}
	if account.Status != "ACTIVE" {
		api.WriteError(w, http.StatusForbidden, "ACCOUNT_INACTIVE", "account is not active", traceID)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid username or password", traceID)
		return
	}

	if err := s.accounts.TouchLogin(r.Context(), account.Username, s.now()); err != nil {
		s.logger.Warn("failed to record login", zap.String("username", account.Username), zap.Error(err))
	}

	resp, err := s.issue(account.Username, account.Role)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to generate token", traceID)
		return
	}
	api.WriteSuccess(w, http.StatusOK, resp)
}

// RefreshHandler reissues the caller's token with a new expiry. The role is
// re-derived so promotions and demotions take effect on refresh.
func (s *Service) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := common.ClaimsFromContext(r.Context())
	resp, err := s.issue(claims.Subject, s.roleFor(claims.Subject))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to refresh token", middleware.GetReqID(r.Context()))
		return
	}
	api.WriteSuccess(w, http.StatusOK, resp)
}

func (s *Service) VerifyHandler(w http.ResponseWriter, r *http.Request) {
	claims, _ := common.ClaimsFromContext(r.Context())
	api.WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"valid":    true,
		"username": claims.Subject,
		"role":     claims.Role,
	})
}

func NewRouter(svc *Service) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", svc.RegisterHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", svc.LoginHandler).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(common.AuthMiddleware(svc.secret))
	authed.HandleFunc("/auth/refresh", svc.RefreshHandler).Methods(http.MethodPost)
	authed.HandleFunc("/auth/verify", svc.VerifyHandler).Methods(http.MethodGet)
	return r
}
