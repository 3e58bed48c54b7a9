package registry_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

// memState is an in-memory world state using the same composite key layout as the peer.
type memState struct {
	data    map[string][]byte
	puts    int
	getErr  error
	putErr  error
	failPut int // fail the nth put (1-based), 0 disables
}

func newMemState() *memState {
	return &memState{data: map[string][]byte{}}
}

func (m *memState) GetState(key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.data[key], nil
}

func (m *memState) PutState(key string, value []byte) error {
	m.puts++
	if m.putErr != nil && (m.failPut == 0 || m.failPut == m.puts) {
		return m.putErr
	}
	m.data[key] = value
	return nil
}

func (m *memState) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	key := "\x00" + objectType + "\x00"
	for _, a := range attributes {
		if strings.ContainsRune(a, 0) {
			return "", errors.New("attribute contains U+0000")
		}
		key += a + "\x00"
	}
	return key, nil
}

func (m *memState) snapshot() map[string]string {
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = string(v)
	}
	return out
}

var testNow = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func session(id string, role registry.Role) registry.Session {
	msp := "usersMSP"
	if role == registry.Registrar {
		msp = "registrarMSP"
	}
	return registry.Session{
		Caller: registry.Identity{ID: id, MSPID: msp, Role: role},
		Now:    testNow,
		TxID:   "tx-" + id,
	}
}

var (
	alice     = session("x509::CN=alice", registry.Participant)
	bob       = session("x509::CN=bob", registry.Participant)
	registrar = session("x509::CN=registrar", registry.Registrar)
)

type fixture struct {
	state      *memState
	ledger     *registry.Ledger
	users      *registry.UserService
	properties *registry.PropertyService
}

func newFixture() *fixture {
	state := newMemState()
	ledger := registry.NewLedger(state)
	users := registry.NewUserService(ledger)
	return &fixture{
		state:      state,
		ledger:     ledger,
		users:      users,
		properties: registry.NewPropertyService(ledger, users),
	}
}

// approvedUser registers and approves a user, then tops up its balance.
func (f *fixture) approvedUser(t *testing.T, sess registry.Session, name, aadhaar string, tokens ...string) *registry.User {
	t.Helper()
	_, err := f.users.RequestNewUser(sess, name, name+"@example.com", "9999999999", aadhaar)
	require.NoError(t, err)
	user, err := f.users.ApproveUser(registrar, name, aadhaar)
	require.NoError(t, err)
	for _, token := range tokens {
		user, err = f.users.RechargeAccount(sess, name, aadhaar, token)
		require.NoError(t, err)
	}
	return user
}

// registeredProperty takes a property through request and registrar approval.
func (f *fixture) registeredProperty(t *testing.T, sess registry.Session, id string, price int64, owner *registry.User) *registry.Property {
	t.Helper()
	_, err := f.properties.RequestPropertyRegistration(sess, id, price, "registered", owner.Name, owner.AadhaarNumber)
	require.NoError(t, err)
	property, err := f.properties.ApprovePropertyRegistration(registrar, id)
	require.NoError(t, err)
	return property
}

func requireKind(t *testing.T, err error, kind registry.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, registry.KindOf(err), "unexpected error: %v", err)
}
