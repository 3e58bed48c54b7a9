package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
	"github.com/regnet/property-registration/backend/pkg/common"
	"github.com/regnet/property-registration/backend/pkg/common/api"
	"github.com/regnet/property-registration/backend/pkg/readmodel"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// ReadModel is the query side of the registry projection.
type ReadModel interface {
	Stats(ctx context.Context, since time.Time) (*readmodel.Stats, error)
	Properties(ctx context.Context, status registry.PropertyStatus, limit int) ([]registry.Property, error)
	Users(ctx context.Context, state registry.UserState, limit int) ([]registry.User, error)
	Transfers(ctx context.Context, propertyID string) ([]readmodel.Transfer, error)
}

// Service backs the registrar operations console.
type Service struct {
	store  ReadModel
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store ReadModel, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

func (s *Service) fail(w http.ResponseWriter, r *http.Request, what string, err error) {
	traceID := middleware.GetReqID(r.Context())
	s.logger.Error("read model query failed", zap.String("query", what), zap.String("trace_id", traceID), zap.Error(err))
	api.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to query "+what, traceID)
}

func limitParam(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, true
}

var knownStatuses = map[registry.PropertyStatus]bool{
	registry.PropertyRequested:  true,
	registry.PropertyRegistered: true,
	registry.PropertyOnSale:     true,
}

// DashboardHandler returns registry totals and the last day's transfer activity
func (s *Service) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context(), s.now().Add(-24*time.Hour))
	if err != nil {
		s.fail(w, r, "dashboard", err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, stats)
}

// ListPropertiesHandler lists indexed properties, optionally filtered by status
func (s *Service) ListPropertiesHandler(w http.ResponseWriter, r *http.Request) {
	traceID := middleware.GetReqID(r.Context())
	status := registry.PropertyStatus(r.URL.Query().Get("status"))
	if status != "" && !knownStatuses[status] {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown status "+string(status), traceID)
		return
	}
	limit, ok := limitParam(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", traceID)
		return
	}

	properties, err := s.store.Properties(r.Context(), status, limit)
	if err != nil {
		s.fail(w, r, "properties", err)
		return
	}
	if properties == nil {
		properties = []registry.Property{}
	}
	api.WriteSuccess(w, http.StatusOK, properties)
}

// TransfersHandler returns the ownership history of a property
func (s *Service) TransfersHandler(w http.ResponseWriter, r *http.Request) {
	transfers, err := s.store.Transfers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, "transfers", err)
		return
	}
	if transfers == nil {
		transfers = []readmodel.Transfer{}
	}
	api.WriteSuccess(w, http.StatusOK, transfers)
}

// PendingUsersHandler lists users waiting for registrar approval
func (s *Service) PendingUsersHandler(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", middleware.GetReqID(r.Context()))
		return
	}
	users, err := s.store.Users(r.Context(), registry.UserRequested, limit)
	if err != nil {
		s.fail(w, r, "pending users", err)
		return
	}
	if users == nil {
		users = []registry.User{}
	}
	api.WriteSuccess(w, http.StatusOK, users)
}

// PendingPropertiesHandler lists properties waiting for registrar approval
func (s *Service) PendingPropertiesHandler(w http.ResponseWriter, r *http.Request) {
	limit, ok := limitParam(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", middleware.GetReqID(r.Context()))
		return
	}
	properties, err := s.store.Properties(r.Context(), registry.PropertyRequested, limit)
	if err != nil {
		s.fail(w, r, "pending properties", err)
		return
	}
	if properties == nil {
		properties = []registry.Property{}
	}
	api.WriteSuccess(w, http.StatusOK, properties)
}

func NewRouter(svc *Service, cfg *common.Config) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "healthy", "service": "registry-ops"})
	}).Methods(http.MethodGet)

	ops := r.PathPrefix("/ops").Subrouter()
	ops.Use(common.AuthMiddleware([]byte(cfg.JWTSecret)))
	registrar := func(h http.HandlerFunc) http.HandlerFunc { return common.RequireRole("registrar", h) }

	ops.HandleFunc("/dashboard", registrar(svc.DashboardHandler)).Methods(http.MethodGet)
	ops.HandleFunc("/properties", registrar(svc.ListPropertiesHandler)).Methods(http.MethodGet)
	ops.HandleFunc("/properties/{id}/transfers", registrar(svc.TransfersHandler)).Methods(http.MethodGet)
	ops.HandleFunc("/approvals/users", registrar(svc.PendingUsersHandler)).Methods(http.MethodGet)
	ops.HandleFunc("/approvals/properties", registrar(svc.PendingPropertiesHandler)).Methods(http.MethodGet)
	return r
}
