package chaincode

import (
	"encoding/json"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"go.uber.org/zap"

	"github.com/regnet/property-registration/backend/chaincode/regnet/registry"
)

// Contract names as deployed on the channel.
const (
	UserContractName      = "org.property-registration-network.regnet.usercontract"
	RegistrarContractName = "org.property-registration-network.regnet"
)

// RegistrarMSP is the organisation whose members act as registrars.
const RegistrarMSP = "registrarMSP"

// session resolves the caller and transaction metadata once, at the boundary.
func session(ctx contractapi.TransactionContextInterface) (registry.Session, error) {
	id, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return registry.Session{}, &registry.Error{Kind: registry.KindUnauthorized, Msg: "failed to read client identity", Err: err}
	}
	mspID, err := ctx.GetClientIdentity().GetMSPID()
	if err != nil {
		return registry.Session{}, &registry.Error{Kind: registry.KindUnauthorized, Msg: "failed to get MSP ID", Err: err}
	}
	ts, err := ctx.GetStub().GetTxTimestamp()
	if err != nil {
		return registry.Session{}, &registry.Error{Kind: registry.KindLedgerUnavailable, Msg: "failed to read transaction timestamp", Err: err}
	}

	role := registry.Participant
	if mspID == RegistrarMSP {
		role = registry.Registrar
	}
	return registry.Session{
		Caller: registry.Identity{ID: id, MSPID: mspID, Role: role},
		Now:    ts.AsTime().UTC(),
		TxID:   ctx.GetStub().GetTxID(),
	}, nil
}

type services struct {
	users      *registry.UserService
	properties *registry.PropertyService
}

func newServices(ctx contractapi.TransactionContextInterface) services {
	ledger := registry.NewLedger(ctx.GetStub())
	users := registry.NewUserService(ledger)
	return services{users: users, properties: registry.NewPropertyService(ledger, users)}
}

func emit(ctx contractapi.TransactionContextInterface, event *registry.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}
	return ctx.GetStub().SetEvent(event.Type, payload)
}

func rejected(fn string, sess registry.Session, err error) error {
	zap.L().Warn("transaction rejected",
		zap.String("fn", fn),
		zap.String("tx_id", sess.TxID),
		zap.String("caller", sess.Caller.ID),
		zap.String("kind", string(registry.KindOf(err))),
		zap.Error(err),
	)
	return err
}

func viewUser(ctx contractapi.TransactionContextInterface, name, aadhaarNumber string) (*registry.User, error) {
	return newServices(ctx).users.ViewUser(name, aadhaarNumber)
}

func viewProperty(ctx contractapi.TransactionContextInterface, propertyID string) (*registry.Property, error) {
	return newServices(ctx).properties.ViewProperty(propertyID)
}
