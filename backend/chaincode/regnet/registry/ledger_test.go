package registry_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

func TestCompositeKeys(t *testing.T) {
	ledger := registry.NewLedger(newMemState())

	userKey, err := ledger.UserKey(registry.UserRef{Name: "alice", AadhaarNumber: "1111"})
	require.NoError(t, err)
	require.Equal(t, "\x00org.property-registration-network.regnet.user\x00alice\x001111\x00", userKey)

	propertyKey, err := ledger.PropertyKey("001")
	require.NoError(t, err)
	require.Equal(t, "\x00org.property-registration-network.regnet.property\x00001\x00", propertyKey)

	swapped, err := ledger.UserKey(registry.UserRef{Name: "1111", AadhaarNumber: "alice"})
	require.NoError(t, err)
	require.NotEqual(t, userKey, swapped)
}

func TestLedgerMissingRecordIsNotAnError(t *testing.T) {
	ledger := registry.NewLedger(newMemState())

	user, err := ledger.User(registry.UserRef{Name: "nobody", AadhaarNumber: "0"})
	require.NoError(t, err)
	require.Nil(t, user)

	property, err := ledger.Property("missing")
	require.NoError(t, err)
	require.Nil(t, property)
}

func TestLedgerFailures(t *testing.T) {
	state := newMemState()
	ledger := registry.NewLedger(state)

	key, err := ledger.PropertyKey("001")
	require.NoError(t, err)
	state.data[key] = []byte("{not json")

	_, err = ledger.Property("001")
	requireKind(t, err, registry.KindLedgerCorrupt)
	require.True(t, errors.Is(err, registry.ErrLedgerCorrupt))

	state.getErr = errors.New("peer unreachable")
	_, err = ledger.Property("001")
	requireKind(t, err, registry.KindLedgerUnavailable)
	require.True(t, registry.KindOf(err).Retryable())
	require.ErrorIs(t, err, state.getErr)
}

func TestRecordRoundTrip(t *testing.T) {
	ledger := registry.NewLedger(newMemState())

	user := &registry.User{
		Name:          "alice",
		AadhaarNumber: "1111",
		Email:         "alice@example.com",
		PhoneNumber:   "9999999999",
		State:         registry.UserApproved,
		CreditBalance: 1500,
		CreatedBy:     "x509::CN=alice",
		CreatedAt:     testNow,
		UpdatedBy:     "x509::CN=registrar",
		UpdatedAt:     testNow.Add(90 * time.Minute),
	}
	property := &registry.Property{
		PropertyID: "001",
		Price:      600,
		Status:     registry.PropertyOnSale,
		Owner:      user.Ref(),
		CreatedBy:  "x509::CN=alice",
		CreatedAt:  testNow,
		UpdatedBy:  "x509::CN=alice",
		UpdatedAt:  testNow,
	}
	require.NoError(t, ledger.Begin().PutUser(user).PutProperty(property).Commit())

	gotUser, err := ledger.User(user.Ref())
	require.NoError(t, err)
	require.Equal(t, user, gotUser)

	gotProperty, err := ledger.Property("001")
	require.NoError(t, err)
	require.Equal(t, property, gotProperty)
}

func TestRecordEncodingIsSelfDescribing(t *testing.T) {
	state := newMemState()
	ledger := registry.NewLedger(state)
	user := &registry.User{Name: "alice", AadhaarNumber: "1111", State: registry.UserRequested, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, ledger.Begin().PutUser(user).Commit())

	key, err := ledger.UserKey(user.Ref())
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(state.data[key], &fields))
	require.Equal(t, "alice", fields["name"])
	require.Equal(t, "1111", fields["aadhaarNumber"])
	require.Equal(t, "REQUESTED", fields["state"])
	require.Equal(t, "2024-03-01T10:30:00Z", fields["createdAt"])
}

func TestCommitRejectsInvalidKeyBeforeWriting(t *testing.T) {
	state := newMemState()
	ledger := registry.NewLedger(state)

	good := &registry.User{Name: "alice", AadhaarNumber: "1111"}
	bad := &registry.User{Name: "bad\x00name", AadhaarNumber: "2222"}
	err := ledger.Begin().PutUser(good).PutUser(bad).Commit()
	requireKind(t, err, registry.KindInvalidArgument)
	require.Zero(t, state.puts)
}
