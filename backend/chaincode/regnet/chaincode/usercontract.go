package chaincode

import (
	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

// UserContract holds the transactions initiated by ordinary network users
type UserContract struct {
	contractapi.Contract
}

func NewUserContract() *UserContract {
	c := &UserContract{}
	c.Name = UserContractName
	return c
}

// Instantiate is called once when the chaincode is committed
func (c *UserContract) Instantiate(ctx contractapi.TransactionContextInterface) error {
	zap.L().Info("user contract instantiated", zap.String("tx_id", ctx.GetStub().GetTxID()))
	return nil
}

// RequestNewUser asks the registrar to record the caller's account details
func (c *UserContract) RequestNewUser(ctx contractapi.TransactionContextInterface, name string, email string, phoneNumber string, aadhaarNumber string) (*registry.User, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	user, err := newServices(ctx).users.RequestNewUser(sess, name, email, phoneNumber, aadhaarNumber)
	if err != nil {
		return nil, rejected("RequestNewUser", sess, err)
	}

	event := registry.NewEvent(sess, registry.EventUserRequested)
	event.User = user
	return user, emit(ctx, event)
}

// RechargeAccount converts a bank transaction ID issued by the network admin into coins
func (c *UserContract) RechargeAccount(ctx contractapi.TransactionContextInterface, name string, aadhaarNumber string, bankTransactionID string) (*registry.User, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	user, err := newServices(ctx).users.RechargeAccount(sess, name, aadhaarNumber, bankTransactionID)
	if err != nil {
		return nil, rejected("RechargeAccount", sess, err)
	}

	event := registry.NewEvent(sess, registry.EventAccountRecharged)
	event.User = user
	return user, emit(ctx, event)
}

// ViewUser returns the current state of a user
func (c *UserContract) ViewUser(ctx contractapi.TransactionContextInterface, name string, aadhaarNumber string) (*registry.User, error) {
	return viewUser(ctx, name, aadhaarNumber)
}

// PropertyRegistrationRequest asks the registrar to register a property owned by the given user.
// Status must be one of requested, registered or onSale; the property is stored as REQUESTED until approved.
func (c *UserContract) PropertyRegistrationRequest(ctx contractapi.TransactionContextInterface, propertyID string, price int64, status string, name string, aadhaarNumber string) (*registry.Property, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	property, err := newServices(ctx).properties.RequestPropertyRegistration(sess, propertyID, price, status, name, aadhaarNumber)
	if err != nil {
		return nil, rejected("PropertyRegistrationRequest", sess, err)
	}

	event := registry.NewEvent(sess, registry.EventPropertyRequested)
	event.Property = property
	return property, emit(ctx, event)
}

// ViewProperty returns the current state of a property
func (c *UserContract) ViewProperty(ctx contractapi.TransactionContextInterface, propertyID string) (*registry.Property, error) {
	return viewProperty(ctx, propertyID)
}

// UpdateProperty lets the owner put a registered property on sale (onSale) or take it off (registered)
func (c *UserContract) UpdateProperty(ctx contractapi.TransactionContextInterface, propertyID string, status string, name string, aadhaarNumber string) (*registry.Property, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	property, err := newServices(ctx).properties.UpdateProperty(sess, propertyID, status, name, aadhaarNumber)
	if err != nil {
		return nil, rejected("UpdateProperty", sess, err)
	}

	event := registry.NewEvent(sess, registry.EventPropertyUpdated)
	event.Property = property
	return property, emit(ctx, event)
}

// PurchaseProperty transfers a property on sale to the buyer, paying the seller in coins
func (c *UserContract) PurchaseProperty(ctx contractapi.TransactionContextInterface, propertyID string, name string, aadhaarNumber string) (*registry.Property, error) {
	sess, err := session(ctx)
	if err != nil {
		return nil, err
	}
	purchase, err := newServices(ctx).properties.PurchaseProperty(sess, propertyID, name, aadhaarNumber)
	if err != nil {
		return nil, rejected("PurchaseProperty", sess, err)
	}

	zap.L().Info("property purchased",
		zap.String("tx_id", sess.TxID),
		zap.String("property_id", propertyID),
		zap.String("buyer", purchase.Buyer.Name),
		zap.String("seller", purchase.Seller.Name),
		zap.Int64("price", purchase.Property.Price),
	)

	event := registry.NewEvent(sess, registry.EventPropertyPurchased)
	event.Property = purchase.Property
	event.Buyer = purchase.Buyer
	event.Seller = purchase.Seller
	return purchase.Property, emit(ctx, event)
}
