package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/chaincode"
	"github.com/regnet/property-registration/backend/pkg/common"
	"github.com/regnet/property-registration/backend/pkg/common/api"
)

const secret = "gateway-secret"

type call struct {
	submit   bool
	contract string
	fn       string
	args     []string
}

type stubLedger struct {
	calls  []call
	result []byte
	err    error
}

func (s *stubLedger) SubmitTransaction(contractName, fn string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, call{submit: true, contract: contractName, fn: fn, args: args})
	return s.result, s.err
}

func (s *stubLedger) EvaluateTransaction(contractName, fn string, args ...string) ([]byte, error) {
	s.calls = append(s.calls, call{contract: contractName, fn: fn, args: args})
	return s.result, s.err
}

func newTestRouter(ledger *stubLedger) http.Handler {
	cfg := &common.Config{JWTSecret: secret, CORSOrigins: []string{"*"}}
	return NewRouter(NewService(ledger, zap.NewNop()), cfg)
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := common.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, h http.Handler, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, role))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutesInvokeChaincode(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		role   string
		body   interface{}
		status int
		want   call
	}{
		{
			name: "request user", method: http.MethodPost, path: "/users", role: "participant",
			body:   map[string]string{"name": "alice", "email": "a@x.io", "phone_number": "999", "aadhaar_number": "1111"},
			status: http.StatusCreated,
			want:   call{submit: true, contract: chaincode.UserContractName, fn: "RequestNewUser", args: []string{"alice", "a@x.io", "999", "1111"}},
		},
		{
			name: "view user", method: http.MethodGet, path: "/users/alice/1111", role: "participant",
			status: http.StatusOK,
			want:   call{contract: chaincode.UserContractName, fn: "ViewUser", args: []string{"alice", "1111"}},
		},
		{
			name: "approve user", method: http.MethodPost, path: "/users/alice/1111/approve", role: "registrar",
			status: http.StatusOK,
			want:   call{submit: true, contract: chaincode.RegistrarContractName, fn: "ApproveNewUser", args: []string{"alice", "1111"}},
		},
		{
			name: "recharge", method: http.MethodPost, path: "/users/alice/1111/recharge", role: "participant",
			body:   map[string]string{"bank_transaction_id": "upg500"},
			status: http.StatusOK,
			want:   call{submit: true, contract: chaincode.UserContractName, fn: "RechargeAccount", args: []string{"alice", "1111", "upg500"}},
		},
		{
			name: "request property", method: http.MethodPost, path: "/properties", role: "participant",
			body:   map[string]interface{}{"property_id": "001", "price": 600, "status": "registered", "owner_name": "alice", "owner_aadhaar_number": "1111"},
			status: http.StatusCreated,
			want:   call{submit: true, contract: chaincode.UserContractName, fn: "PropertyRegistrationRequest", args: []string{"001", "600", "registered", "alice", "1111"}},
		},
		{
			name: "view property", method: http.MethodGet, path: "/properties/001", role: "registrar",
			status: http.StatusOK,
			want:   call{contract: chaincode.UserContractName, fn: "ViewProperty", args: []string{"001"}},
		},
		{
			name: "approve property", method: http.MethodPost, path: "/properties/001/approve", role: "registrar",
			status: http.StatusOK,
			want:   call{submit: true, contract: chaincode.RegistrarContractName, fn: "ApprovePropertyRegistration", args: []string{"001"}},
		},
		{
			name: "update property", method: http.MethodPut, path: "/properties/001", role: "participant",
			body:   map[string]string{"status": "onSale", "owner_name": "alice", "owner_aadhaar_number": "1111"},
			status: http.StatusOK,
			want:   call{submit: true, contract: chaincode.UserContractName, fn: "UpdateProperty", args: []string{"001", "onSale", "alice", "1111"}},
		},
		{
			name: "purchase property", method: http.MethodPost, path: "/properties/001/purchase", role: "participant",
			body:   map[string]string{"buyer_name": "bob", "buyer_aadhaar_number": "2222"},
			status: http.StatusOK,
			want:   call{submit: true, contract: chaincode.UserContractName, fn: "PurchaseProperty", args: []string{"001", "bob", "2222"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := &stubLedger{result: []byte(`{"ok":true}`)}
			rec := do(t, newTestRouter(ledger), tt.method, tt.path, tt.role, tt.body)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			require.JSONEq(t, `{"ok":true}`, rec.Body.String())
			require.Equal(t, []call{tt.want}, ledger.calls)
		})
	}
}

func TestRegistrarRoutesRequireRegistrarRole(t *testing.T) {
	ledger := &stubLedger{}
	router := newTestRouter(ledger)

	rec := do(t, router, http.MethodPost, "/users/alice/1111/approve", "participant", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPost, "/properties/001/approve", "participant", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, ledger.calls)
}

func TestRoutesRequireToken(t *testing.T) {
	ledger := &stubLedger{}
	rec := do(t, newTestRouter(ledger), http.MethodGet, "/users/alice/1111", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Empty(t, ledger.calls)
}

func TestChaincodeErrorsAreMapped(t *testing.T) {
	ledger := &stubLedger{err: errors.New("Chaincode status Code: (500) UNKNOWN. Description: INSUFFICIENT_BALANCE: balance 100 is below the price 600 of property 001")}
	rec := do(t, newTestRouter(ledger), http.MethodPost, "/properties/001/purchase", "participant",
		map[string]string{"buyer_name": "bob", "buyer_aadhaar_number": "2222"})

	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	var body api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "INSUFFICIENT_BALANCE", body.Code)
	require.False(t, body.Retryable)
	require.NotEmpty(t, body.TraceID)
}

func TestConflictIsRetryable(t *testing.T) {
	ledger := &stubLedger{err: errors.New("transaction invalidated with status MVCC_READ_CONFLICT")}
	rec := do(t, newTestRouter(ledger), http.MethodPost, "/users/alice/1111/recharge", "participant",
		map[string]string{"bank_transaction_id": "upg100"})

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestInvalidBody(t *testing.T) {
	ledger := &stubLedger{}
	router := newTestRouter(ledger)

	req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+token(t, "participant"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, ledger.calls)
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(&stubLedger{}), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestContractsRouteByName(t *testing.T) {
	users, registrar := &stubLedger{result: []byte(`{}`)}, &stubLedger{result: []byte(`{}`)}
	contracts := Contracts{
		chaincode.UserContractName:      users,
		chaincode.RegistrarContractName: registrar,
	}

	_, err := contracts.SubmitTransaction(chaincode.RegistrarContractName, "ApproveNewUser", "alice", "1111")
	require.NoError(t, err)
	_, err = contracts.EvaluateTransaction(chaincode.UserContractName, "ViewUser", "alice", "1111")
	require.NoError(t, err)
	require.Len(t, registrar.calls, 1)
	require.Len(t, users.calls, 1)

	_, err = contracts.SubmitTransaction("org.example.unknown", "Noop")
	require.Error(t, err)
}
