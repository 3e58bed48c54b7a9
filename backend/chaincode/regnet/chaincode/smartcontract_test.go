package chaincode_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/regnet/property-registration/backend/chaincode/regnet/chaincode"
	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

var txTime = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)

type fakeStub struct {
	shim.ChaincodeStubInterface
	state     map[string][]byte
	txID      string
	eventName string
	event     []byte
}

func (s *fakeStub) GetState(key string) ([]byte, error) { return s.state[key], nil }

func (s *fakeStub) PutState(key string, value []byte) error {
	s.state[key] = value
	return nil
}

func (s *fakeStub) CreateCompositeKey(objectType string, attributes []string) (string, error) {
	return shim.CreateCompositeKey(objectType, attributes)
}

func (s *fakeStub) GetTxID() string { return s.txID }

func (s *fakeStub) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(txTime), nil
}

func (s *fakeStub) SetEvent(name string, payload []byte) error {
	s.eventName = name
	s.event = payload
	return nil
}

type fakeIdentity struct {
	cid.ClientIdentity
	id    string
	mspID string
}

func (i *fakeIdentity) GetID() (string, error)    { return i.id, nil }
func (i *fakeIdentity) GetMSPID() (string, error) { return i.mspID, nil }

type network struct {
	stub      *fakeStub
	users     *chaincode.UserContract
	registrar *chaincode.RegistrarContract
}

func newNetwork() *network {
	return &network{
		stub:      &fakeStub{state: map[string][]byte{}},
		users:     chaincode.NewUserContract(),
		registrar: chaincode.NewRegistrarContract(),
	}
}

// as builds a transaction context for one invocation by the given member.
func (n *network) as(id, mspID string) contractapi.TransactionContextInterface {
	n.stub.txID = "tx-" + id
	ctx := new(contractapi.TransactionContext)
	ctx.SetStub(n.stub)
	ctx.SetClientIdentity(&fakeIdentity{id: id, mspID: mspID})
	return ctx
}

func (n *network) lastEvent(t *testing.T) registry.Event {
	t.Helper()
	var event registry.Event
	require.NoError(t, json.Unmarshal(n.stub.event, &event))
	require.Equal(t, n.stub.eventName, event.Type)
	return event
}

func TestContractNames(t *testing.T) {
	require.Equal(t, "org.property-registration-network.regnet.usercontract", chaincode.NewUserContract().GetName())
	require.Equal(t, "org.property-registration-network.regnet", chaincode.NewRegistrarContract().GetName())
}

func TestUserOnboardingThroughContracts(t *testing.T) {
	n := newNetwork()

	user, err := n.users.RequestNewUser(n.as("alice", "usersMSP"), "alice", "alice@example.com", "9999999999", "1111")
	require.NoError(t, err)
	require.Equal(t, registry.UserRequested, user.State)
	require.Equal(t, "alice", user.CreatedBy)
	require.Equal(t, txTime, user.CreatedAt)
	require.Equal(t, registry.EventUserRequested, n.lastEvent(t).Type)

	_, err = n.registrar.ApproveNewUser(n.as("mallory", "usersMSP"), "alice", "1111")
	require.ErrorIs(t, err, registry.ErrUnauthorized)

	approved, err := n.registrar.ApproveNewUser(n.as("registrar", chaincode.RegistrarMSP), "alice", "1111")
	require.NoError(t, err)
	require.Equal(t, registry.UserApproved, approved.State)
	require.Equal(t, "registrar", approved.UpdatedBy)

	event := n.lastEvent(t)
	require.Equal(t, registry.EventUserApproved, event.Type)
	require.Equal(t, "tx-registrar", event.TxID)
	require.Equal(t, approved, event.User)

	recharged, err := n.users.RechargeAccount(n.as("alice", "usersMSP"), "alice", "1111", "upg500")
	require.NoError(t, err)
	require.Equal(t, int64(500), recharged.CreditBalance)

	viewed, err := n.registrar.ViewUser(n.as("registrar", chaincode.RegistrarMSP), "alice", "1111")
	require.NoError(t, err)
	require.Equal(t, recharged, viewed)
}

func TestPropertySaleThroughContracts(t *testing.T) {
	n := newNetwork()
	reg := func() contractapi.TransactionContextInterface { return n.as("registrar", chaincode.RegistrarMSP) }

	for _, u := range []struct{ name, aadhaar, token string }{{"seller", "1111", "upg100"}, {"buyer", "2222", "upg1000"}} {
		_, err := n.users.RequestNewUser(n.as(u.name, "usersMSP"), u.name, u.name+"@example.com", "9999999999", u.aadhaar)
		require.NoError(t, err)
		_, err = n.registrar.ApproveNewUser(reg(), u.name, u.aadhaar)
		require.NoError(t, err)
		_, err = n.users.RechargeAccount(n.as(u.name, "usersMSP"), u.name, u.aadhaar, u.token)
		require.NoError(t, err)
	}

	requested, err := n.users.PropertyRegistrationRequest(n.as("seller", "usersMSP"), "001", 600, "onSale", "seller", "1111")
	require.NoError(t, err)
	require.Equal(t, registry.PropertyRequested, requested.Status)

	_, err = n.registrar.ApprovePropertyRegistration(n.as("seller", "usersMSP"), "001")
	require.ErrorIs(t, err, registry.ErrUnauthorized)

	registered, err := n.registrar.ApprovePropertyRegistration(reg(), "001")
	require.NoError(t, err)
	require.Equal(t, registry.PropertyRegistered, registered.Status)
	require.Equal(t, registry.EventPropertyRegistered, n.lastEvent(t).Type)

	_, err = n.users.PurchaseProperty(n.as("buyer", "usersMSP"), "001", "buyer", "2222")
	require.ErrorIs(t, err, registry.ErrNotForSale)

	_, err = n.users.UpdateProperty(n.as("buyer", "usersMSP"), "001", "onSale", "buyer", "2222")
	require.ErrorIs(t, err, registry.ErrNotOwner)

	listed, err := n.users.UpdateProperty(n.as("seller", "usersMSP"), "001", "onSale", "seller", "1111")
	require.NoError(t, err)
	require.Equal(t, registry.PropertyOnSale, listed.Status)

	sold, err := n.users.PurchaseProperty(n.as("buyer", "usersMSP"), "001", "buyer", "2222")
	require.NoError(t, err)
	require.Equal(t, registry.UserRef{Name: "buyer", AadhaarNumber: "2222"}, sold.Owner)
	require.Equal(t, registry.PropertyRegistered, sold.Status)

	event := n.lastEvent(t)
	require.Equal(t, registry.EventPropertyPurchased, event.Type)
	require.Equal(t, int64(400), event.Buyer.CreditBalance)
	require.Equal(t, int64(700), event.Seller.CreditBalance)

	viewed, err := n.users.ViewProperty(n.as("anyone", "usersMSP"), "001")
	require.NoError(t, err)
	require.Equal(t, sold, viewed)
}

func TestViewMissingRecords(t *testing.T) {
	n := newNetwork()

	_, err := n.users.ViewUser(n.as("alice", "usersMSP"), "ghost", "0")
	require.ErrorIs(t, err, registry.ErrNotFound)

	_, err = n.registrar.ViewProperty(n.as("registrar", chaincode.RegistrarMSP), "404")
	require.ErrorIs(t, err, registry.ErrNotFound)
}
