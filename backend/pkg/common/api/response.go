package api

import (
	"encoding/json"
	"net/http"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

// ErrorResponse is the error envelope returned by every service
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

var kindStatus = map[registry.Kind]int{
	registry.KindNotFound:                http.StatusNotFound,
	registry.KindAlreadyExists:           http.StatusConflict,
	registry.KindUnauthorized:            http.StatusForbidden,
	registry.KindInvalidStatus:           http.StatusUnprocessableEntity,
	registry.KindInvalidTransactionToken: http.StatusUnprocessableEntity,
	registry.KindInvalidArgument:         http.StatusBadRequest,
	registry.KindNotApproved:             http.StatusForbidden,
	registry.KindNotOwner:                http.StatusForbidden,
	registry.KindNotForSale:              http.StatusConflict,
	registry.KindSelfPurchase:            http.StatusConflict,
	registry.KindInsufficientBalance:     http.StatusPaymentRequired,
	registry.KindLedgerUnavailable:       http.StatusServiceUnavailable,
	registry.KindLedgerCorrupt:           http.StatusInternalServerError,
}

// StatusFor maps a registry error kind to an HTTP status.
func StatusFor(kind registry.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusBadGateway
}

// WriteError writes a standardized JSON error response
func WriteError(w http.ResponseWriter, statusCode int, code, message, traceID string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		TraceID: traceID,
	})
}

// WriteLedgerError reports a failed chaincode invocation. The kind is recovered
// from the error text; retryable failures carry a Retry-After hint.
func WriteLedgerError(w http.ResponseWriter, err error, traceID string) {
	kind := registry.KindOf(err)
	if kind == "" {
		kind = registry.ParseKind(err.Error())
	}
	code := string(kind)
	if code == "" {
		code = "LEDGER_ERROR"
	}
	if kind.Retryable() {
		w.Header().Set("Retry-After", "1")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(kind))
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:      code,
		Message:   err.Error(),
		Retryable: kind.Retryable(),
		TraceID:   traceID,
	})
}

// WriteSuccess writes data as JSON
func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// WriteRaw writes an already encoded JSON body, as returned by the chaincode
func WriteRaw(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}
