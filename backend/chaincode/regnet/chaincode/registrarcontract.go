package chaincode

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

// RegistrarContract holds the transactions reserved for registrars. Every
// mutating function is also gated on the caller's MSP inside the registry.
type RegistrarContract struct {
	contractapi.Contract
}

func NewRegistrarContract() *RegistrarContract {
	c := &RegistrarContract{}
	c.Name = RegistrarContractName
	return c
}

// Instantiate is called once when the chaincode is committed
func (c *RegistrarContract) Instantiate(ctx contractapi.TransactionContextInterface) error {
	zap.L().Info("registrar contract instantiated", zap.String("tx_id", ctx.GetStub().GetTxID()))
	return nil
}

// ViewUser returns the current state of a user
func (c *RegistrarContract) ViewUser(ctx contractapi.TransactionContextInterface, name string, aadhaarNumber string) (*registry.User, error) {
	return viewUser(ctx, name, aadhaarNumber)
}

// ApproveNewUser approves a requested account and opens it with a zero coin balance
func (c *RegistrarContract) ApproveNewUser(ctx contractapi.TransactionContextInterface, name string, aadhaarNumber string) (*registry.User, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	user, err := newServices(ctx).users.ApproveUser(sess, name, aadhaarNumber)
	if err != nil {
		return nil, rejected("ApproveNewUser", sess, err)
	}

	event := registry.NewEvent(sess, registry.EventUserApproved)
	event.User = user
	return user, emit(ctx, event)
}

// ViewProperty returns the current state of a property
func (c *RegistrarContract) ViewProperty(ctx contractapi.TransactionContextInterface, propertyID string) (*registry.Property, error) {
	return viewProperty(ctx, propertyID)
}

// ApprovePropertyRegistration confirms a pending property registration request
func (c *RegistrarContract) ApprovePropertyRegistration(ctx contractapi.TransactionContextInterface, propertyID string) (*registry.Property, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	property, err := newServices(ctx).properties.ApprovePropertyRegistration(sess, propertyID)
	if err != nil {
		return nil, rejected("ApprovePropertyRegistration", sess, err)
	}

	event := registry.NewEvent(sess, registry.EventPropertyRegistered)
	event.Property = property
	return property, emit(ctx, event)
}
