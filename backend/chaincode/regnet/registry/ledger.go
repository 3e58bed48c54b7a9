package registry

import (
	"encoding/json"
	"fmt"
)

// Composite key namespaces. Changing either breaks every key already on the ledger.
const (
	UserNamespace     = "org.property-registration-network.regnet.user"
	PropertyNamespace = "org.property-registration-network.regnet.property"
)

const (
	entityUser     = "user"
	entityProperty = "property"
)

// State is the slice of the chaincode stub the registry needs. It is
// satisfied by shim.ChaincodeStubInterface.
type State interface {
	GetState(key string) ([]byte, error)
	PutState(key string, value []byte) error
	CreateCompositeKey(objectType string, attributes []string) (string, error)
}

// Ledger reads and writes registry records under composite keys.
// A missing record is reported as (nil, nil); only store and decoding
// failures are errors.
type Ledger struct {
	state State
}

// NewLedger wraps the transaction's world state.
func NewLedger(state State) *Ledger {
	return &Ledger{state: state}
}

// UserKey builds the key of a user: namespace, then name, then Aadhaar number.
func (l *Ledger) UserKey(ref UserRef) (string, error) {
	key, err := l.state.CreateCompositeKey(UserNamespace, []string{ref.Name, ref.AadhaarNumber})
	if err != nil {
		return "", &Error{Kind: KindInvalidArgument, Entity: entityUser, Msg: "cannot build user key", Err: err}
	}
	return key, nil
}

// PropertyKey builds the key of a property from its ID alone.
func (l *Ledger) PropertyKey(propertyID string) (string, error) {
	key, err := l.state.CreateCompositeKey(PropertyNamespace, []string{propertyID})
	if err != nil {
		return "", &Error{Kind: KindInvalidArgument, Entity: entityProperty, Msg: "cannot build property key", Err: err}
	}
	return key, nil
}

// User loads a user by natural key.
func (l *Ledger) User(ref UserRef) (*User, error) {
	key, err := l.UserKey(ref)
	if err != nil {
		return nil, err
	}
	var user User
	found, err := l.get(entityUser, key, &user)
	if err != nil || !found {
		return nil, err
	}
	return &user, nil
}

// Property loads a property by ID.
func (l *Ledger) Property(propertyID string) (*Property, error) {
	key, err := l.PropertyKey(propertyID)
	if err != nil {
		return nil, err
	}
	var property Property
	found, err := l.get(entityProperty, key, &property)
	if err != nil || !found {
		return nil, err
	}
	return &property, nil
}

func (l *Ledger) get(entity, key string, out interface{}) (bool, error) {
	data, err := l.state.GetState(key)
	if err != nil {
		return false, &Error{Kind: KindLedgerUnavailable, Entity: entity, Key: key, Msg: fmt.Sprintf("failed to read %s", entity), Err: err}
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, &Error{Kind: KindLedgerCorrupt, Entity: entity, Key: key, Msg: fmt.Sprintf("failed to decode %s", entity), Err: err}
	}
	return true, nil
}

// Begin starts a write set. Nothing reaches the state until Commit.
func (l *Ledger) Begin() *Txn {
	return &Txn{ledger: l}
}

type write struct {
	entity string
	key    string
	record interface{}
}

// Txn bundles the records one operation writes so they are submitted
// together, after every check has passed.
type Txn struct {
	ledger *Ledger
	writes []write
}

// PutUser stages a user record.
func (t *Txn) PutUser(user *User) *Txn {
	t.writes = append(t.writes, write{entity: entityUser, record: user})
	return t
}

// PutProperty stages a property record.
func (t *Txn) PutProperty(property *Property) *Txn {
	t.writes = append(t.writes, write{entity: entityProperty, record: property})
	return t
}

// Commit encodes every staged record before the first write so that an
// encoding failure never leaves a partial write set. The hosting runtime
// discards the whole write set when the invocation returns an error.
func (t *Txn) Commit() error {
	type encoded struct {
		entity, key string
		value       []byte
	}
	batch := make([]encoded, 0, len(t.writes))
	for _, w := range t.writes {
		var (
			key string
			err error
		)
		switch rec := w.record.(type) {
		case *User:
			key, err = t.ledger.UserKey(rec.Ref())
		case *Property:
			key, err = t.ledger.PropertyKey(rec.PropertyID)
		default:
			err = fmt.Errorf("unsupported record %T", w.record)
		}
		if err != nil {
			return err
		}
		value, err := json.Marshal(w.record)
		if err != nil {
			return &Error{Kind: KindLedgerCorrupt, Entity: w.entity, Key: key, Msg: fmt.Sprintf("failed to encode %s", w.entity), Err: err}
		}
		batch = append(batch, encoded{entity: w.entity, key: key, value: value})
	}

	for _, e := range batch {
		if err := t.ledger.state.PutState(e.key, e.value); err != nil {
			return &Error{Kind: KindLedgerUnavailable, Entity: e.entity, Key: e.key, Msg: fmt.Sprintf("failed to write %s", e.entity), Err: err}
		}
	}
	return nil
}
