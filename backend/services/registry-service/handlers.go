package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/chaincode"
	"github.com/regnet/property-registration/backend/pkg/common"
	"github.com/regnet/property-registration/backend/pkg/common/api"
	"github.com/regnet/property-registration/backend/services/registry-service/models"
)

// Ledger is the part of the fabric client the handlers use.
type Ledger interface {
	SubmitTransaction(contractName, fn string, args ...string) ([]byte, error)
	EvaluateTransaction(contractName, fn string, args ...string) ([]byte, error)
}

// Contracts routes each contract to the client whose identity may invoke it.
type Contracts map[string]Ledger

func (c Contracts) SubmitTransaction(contractName, fn string, args ...string) ([]byte, error) {
	l, ok := c[contractName]
	if !ok {
		return nil, fmt.Errorf("contract %s is not configured", contractName)
	}
	return l.SubmitTransaction(contractName, fn, args...)
}

func (c Contracts) EvaluateTransaction(contractName, fn string, args ...string) ([]byte, error) {
	l, ok := c[contractName]
	if !ok {
		return nil, fmt.Errorf("contract %s is not configured", contractName)
	}
	return l.EvaluateTransaction(contractName, fn, args...)
}

type Service struct {
	fabric Ledger
	logger *zap.Logger
}

func NewService(fabric Ledger, logger *zap.Logger) *Service {
	return &Service{fabric: fabric, logger: logger}
}

func (s *Service) submit(w http.ResponseWriter, r *http.Request, status int, contractName, fn string, args ...string) {
	subject := ""
	if claims, ok := common.ClaimsFromContext(r.Context()); ok {
		subject = claims.Subject
	}
	traceID := middleware.GetReqID(r.Context())

	result, err := s.fabric.SubmitTransaction(contractName, fn, args...)
	if err != nil {
		s.logger.Warn("transaction failed",
			zap.String("fn", fn),
			zap.String("subject", subject),
			zap.String("trace_id", traceID),
			zap.Error(err),
		)
		api.WriteLedgerError(w, err, traceID)
		return
	}
	s.logger.Info("transaction committed", zap.String("fn", fn), zap.String("subject", subject), zap.String("trace_id", traceID))
	api.WriteRaw(w, status, result)
}

func (s *Service) evaluate(w http.ResponseWriter, r *http.Request, fn string, args ...string) {
	result, err := s.fabric.EvaluateTransaction(chaincode.UserContractName, fn, args...)
	if err != nil {
		api.WriteLedgerError(w, err, middleware.GetReqID(r.Context()))
		return
	}
	api.WriteRaw(w, http.StatusOK, result)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		api.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body", middleware.GetReqID(r.Context()))
		return false
	}
	return true
}

func (s *Service) RequestNewUserHandler(w http.ResponseWriter, r *http.Request) {
	var req models.NewUserRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, r, http.StatusCreated, chaincode.UserContractName, "RequestNewUser", req.Name, req.Email, req.PhoneNumber, req.AadhaarNumber)
}

func (s *Service) ViewUserHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.evaluate(w, r, "ViewUser", vars["name"], vars["aadhaar"])
}

func (s *Service) ApproveUserHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.submit(w, r, http.StatusOK, chaincode.RegistrarContractName, "ApproveNewUser", vars["name"], vars["aadhaar"])
}

func (s *Service) RechargeAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req models.RechargeRequest
	if !decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	s.submit(w, r, http.StatusOK, chaincode.UserContractName, "RechargeAccount", vars["name"], vars["aadhaar"], req.BankTransactionID)
}

func (s *Service) RequestPropertyHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PropertyRegistrationRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, r, http.StatusCreated, chaincode.UserContractName, "PropertyRegistrationRequest",
		req.PropertyID, strconv.FormatInt(req.Price, 10), req.Status, req.OwnerName, req.OwnerAadhaarNumber)
}

func (s *Service) ViewPropertyHandler(w http.ResponseWriter, r *http.Request) {
	s.evaluate(w, r, "ViewProperty", mux.Vars(r)["id"])
}

func (s *Service) ApprovePropertyHandler(w http.ResponseWriter, r *http.Request) {
	s.submit(w, r, http.StatusOK, chaincode.RegistrarContractName, "ApprovePropertyRegistration", mux.Vars(r)["id"])
}

func (s *Service) UpdatePropertyHandler(w http.ResponseWriter, r *http.Request) {
	var req models.UpdatePropertyRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, r, http.StatusOK, chaincode.UserContractName, "UpdateProperty", mux.Vars(r)["id"], req.Status, req.OwnerName, req.OwnerAadhaarNumber)
}

func (s *Service) PurchasePropertyHandler(w http.ResponseWriter, r *http.Request) {
	var req models.PurchaseRequest
	if !decode(w, r, &req) {
		return
	}
	s.submit(w, r, http.StatusOK, chaincode.UserContractName, "PurchaseProperty", mux.Vars(r)["id"], req.BuyerName, req.BuyerAadhaarNumber)
}

func requestLogger(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("trace_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// NewRouter wires every registry operation behind JWT authentication.
func NewRouter(svc *Service, cfg *common.Config) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, requestLogger(svc.logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	authed := r.NewRoute().Subrouter()
	authed.Use(common.AuthMiddleware([]byte(cfg.JWTSecret)))
	registrar := func(h http.HandlerFunc) http.HandlerFunc { return common.RequireRole("registrar", h) }

	authed.HandleFunc("/users", svc.RequestNewUserHandler).Methods(http.MethodPost)
	authed.HandleFunc("/users/{name}/{aadhaar}", svc.ViewUserHandler).Methods(http.MethodGet)
	authed.HandleFunc("/users/{name}/{aadhaar}/approve", registrar(svc.ApproveUserHandler)).Methods(http.MethodPost)
	authed.HandleFunc("/users/{name}/{aadhaar}/recharge", svc.RechargeAccountHandler).Methods(http.MethodPost)

	authed.HandleFunc("/properties", svc.RequestPropertyHandler).Methods(http.MethodPost)
	authed.HandleFunc("/properties/{id}", svc.ViewPropertyHandler).Methods(http.MethodGet)
	authed.HandleFunc("/properties/{id}", svc.UpdatePropertyHandler).Methods(http.MethodPut)
	authed.HandleFunc("/properties/{id}/approve", registrar(svc.ApprovePropertyHandler)).Methods(http.MethodPost)
	authed.HandleFunc("/properties/{id}/purchase", svc.PurchasePropertyHandler).Methods(http.MethodPost)

	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	})(r)
}
