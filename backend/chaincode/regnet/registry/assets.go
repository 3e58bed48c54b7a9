package registry

import "time"

// UserState is the lifecycle state of a User account.
type UserState string

const (
	UserRequested UserState = "REQUESTED"
	UserApproved  UserState = "APPROVED"
)

// PropertyStatus is the lifecycle state of a Property.
type PropertyStatus string

const (
	PropertyRequested  PropertyStatus = "REQUESTED"
	PropertyRegistered PropertyStatus = "REGISTERED"
	PropertyOnSale     PropertyStatus = "ON_SALE"
)

// UserRef is the natural key of a User.
type UserRef struct {
	Name          string `json:"name"`
	AadhaarNumber string `json:"aadhaarNumber"`
}

// User represents a participant's account on the registry
type User struct {
	Name          string    `json:"name"`
	AadhaarNumber string    `json:"aadhaarNumber"`
	Email         string    `json:"email"`
	PhoneNumber   string    `json:"phoneNumber"`
	State         UserState `json:"state"`
	CreditBalance int64     `json:"creditBalance"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedBy     string    `json:"updatedBy,omitempty"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Ref returns the user's natural key.
func (u *User) Ref() UserRef {
	return UserRef{Name: u.Name, AadhaarNumber: u.AadhaarNumber}
}

// Approved reports whether the user may transact.
func (u *User) Approved() bool {
	return u.State == UserApproved
}

// Property represents a piece of real estate recorded on the registry
type Property struct {
	PropertyID string         `json:"propertyId"`
	Price      int64          `json:"price"`
	Status     PropertyStatus `json:"status"`
	Owner      UserRef        `json:"owner"`
	CreatedBy  string         `json:"createdBy"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedBy  string         `json:"updatedBy,omitempty"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// coinPacks maps the bank transaction tokens issued by the network admin
// to the number of coins they buy.
var coinPacks = map[string]int64{
	"upg100":  100,
	"upg500":  500,
	"upg1000": 1000,
}

// CoinsFor returns the coin amount bought by a bank transaction token.
func CoinsFor(bankTransactionID string) (int64, bool) {
	amount, ok := coinPacks[bankTransactionID]
	return amount, ok
}

// propertyStatuses maps the status names accepted from callers to stored statuses.
var propertyStatuses = map[string]PropertyStatus{
	"requested":  PropertyRequested,
	"registered": PropertyRegistered,
	"onSale":     PropertyOnSale,
}

// Status sets accepted by the property transitions.
var (
	RequestStatuses = []string{"requested", "registered", "onSale"}
	UpdateStatuses  = []string{"registered", "onSale"}
)
