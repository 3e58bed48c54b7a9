package registry_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

func TestRequireRole(t *testing.T) {
	require.NoError(t, registry.RequireRole(registrar.Caller, registry.Registrar))
	require.NoError(t, registry.RequireRole(alice.Caller, registry.Participant))

	err := registry.RequireRole(alice.Caller, registry.Registrar)
	requireKind(t, err, registry.KindUnauthorized)
	require.Contains(t, err.Error(), "registrar")

	requireKind(t, registry.RequireRole(registrar.Caller, registry.Participant), registry.KindUnauthorized)
}

func TestRequireEnumeratedStatus(t *testing.T) {
	status, err := registry.RequireEnumeratedStatus("onSale", registry.UpdateStatuses)
	require.NoError(t, err)
	require.Equal(t, registry.PropertyOnSale, status)

	status, err = registry.RequireEnumeratedStatus("requested", registry.RequestStatuses)
	require.NoError(t, err)
	require.Equal(t, registry.PropertyRequested, status)

	for _, value := range []string{"requested", "ON_SALE", "", "sold"} {
		_, err := registry.RequireEnumeratedStatus(value, registry.UpdateStatuses)
		requireKind(t, err, registry.KindInvalidStatus)
	}
}

func TestRequireOwnership(t *testing.T) {
	owner := registry.UserRef{Name: "alice", AadhaarNumber: "1111"}
	property := &registry.Property{PropertyID: "001", Owner: owner}

	require.NoError(t, registry.RequireOwnership(owner, property))
	requireKind(t, registry.RequireOwnership(registry.UserRef{Name: "alice", AadhaarNumber: "2222"}, property), registry.KindNotOwner)
}

func TestCoinsFor(t *testing.T) {
	amount, ok := registry.CoinsFor("upg1000")
	require.True(t, ok)
	require.Equal(t, int64(1000), amount)

	_, ok = registry.CoinsFor("upg2000")
	require.False(t, ok)
}

func TestParseKind(t *testing.T) {
	_, err := newFixture().users.ViewUser("ghost", "0")
	require.Equal(t, registry.KindNotFound, registry.ParseKind(err.Error()))

	wrapped := fmt.Sprintf("Transaction processing for endorser [peer0:7051]: Chaincode status Code: (500) UNKNOWN. Description: %v", err)
	require.Equal(t, registry.KindNotFound, registry.ParseKind(wrapped))

	require.Equal(t, registry.KindLedgerUnavailable, registry.ParseKind("transaction invalidated with status (MVCC_READ_CONFLICT)"))
	require.Equal(t, registry.Kind(""), registry.ParseKind("connection refused"))
	require.Equal(t, registry.Kind(""), registry.KindOf(errors.New("plain")))
}
