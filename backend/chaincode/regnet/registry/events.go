package registry

import "time"

// Chaincode event names, one per successful transition.
const (
	EventUserRequested      = "UserRequested"
	EventUserApproved       = "UserApproved"
	EventAccountRecharged   = "AccountRecharged"
	EventPropertyRequested  = "PropertyRequested"
	EventPropertyRegistered = "PropertyRegistered"
	EventPropertyUpdated    = "PropertyUpdated"
	EventPropertyPurchased  = "PropertyPurchased"
)

// EventNames lists every event the chaincode emits.
var EventNames = []string{
	EventUserRequested,
	EventUserApproved,
	EventAccountRecharged,
	EventPropertyRequested,
	EventPropertyRegistered,
	EventPropertyUpdated,
	EventPropertyPurchased,
}

// Event is the payload of a chaincode event.
type Event struct {
	Type      string    `json:"type"`
	TxID      string    `json:"txId"`
	Timestamp time.Time `json:"timestamp"`
	Caller    string    `json:"caller"`
	User      *User     `json:"user,omitempty"`
	Property  *Property `json:"property,omitempty"`
	Buyer     *User     `json:"buyer,omitempty"`
	Seller    *User     `json:"seller,omitempty"`
}

// NewEvent stamps an event with the session's transaction details.
func NewEvent(sess Session, eventType string) *Event {
	return &Event{
		Type:      eventType,
		TxID:      sess.TxID,
		Timestamp: sess.Now,
		Caller:    sess.Caller.ID,
	}
}
