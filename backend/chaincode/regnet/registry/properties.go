package registry

// PropertyService owns the Property state machine:
// REQUESTED -> REGISTERED <-> ON_SALE, and ownership transfer on purchase.
type PropertyService struct {
	ledger *Ledger
	users  *UserService
}

// NewPropertyService resolves owners and buyers through users.
func NewPropertyService(ledger *Ledger, users *UserService) *PropertyService {
	return &PropertyService{ledger: ledger, users: users}
}

// Purchase is the outcome of a completed sale.
type Purchase struct {
	Property *Property `json:"property"`
	Buyer    *User     `json:"buyer"`
	Seller   *User     `json:"seller"`
}

// RequestPropertyRegistration records an owner's request to register a property.
// The record always starts REQUESTED whatever status the caller supplied; only
// a registrar can move it to REGISTERED.
func (s *PropertyService) RequestPropertyRegistration(sess Session, propertyID string, price int64, status, ownerName, ownerAadhaarNumber string) (*Property, error) {
	if err := requireArgs(entityProperty, "propertyId", propertyID, "name", ownerName, "aadhaarNumber", ownerAadhaarNumber); err != nil {
		return nil, err
	}
	if price <= 0 {
		return nil, newError(KindInvalidArgument, entityProperty, propertyID, "price must be positive, got %d", price)
	}

	existing, err := s.ledger.Property(propertyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, newError(KindAlreadyExists, entityProperty, propertyID, "property %s is already registered", propertyID)
	}
	owner, err := s.users.load(UserRef{Name: ownerName, AadhaarNumber: ownerAadhaarNumber})
	if err != nil {
		return nil, err
	}
	if _, err := RequireEnumeratedStatus(status, RequestStatuses); err != nil {
		return nil, err
	}
	if err := RequireApproved(owner); err != nil {
		return nil, err
	}

	property := &Property{
		PropertyID: propertyID,
		Price:      price,
		Status:     PropertyRequested,
		Owner:      owner.Ref(),
		CreatedBy:  sess.Caller.ID,
		CreatedAt:  sess.Now,
		UpdatedBy:  sess.Caller.ID,
		UpdatedAt:  sess.Now,
	}
	if err := s.ledger.Begin().PutProperty(property).Commit(); err != nil {
		return nil, err
	}
	return property, nil
}

// ApprovePropertyRegistration confirms a pending registration request.
func (s *PropertyService) ApprovePropertyRegistration(sess Session, propertyID string) (*Property, error) {
	if err := RequireRole(sess.Caller, Registrar); err != nil {
		return nil, err
	}
	property, err := s.find(propertyID)
	if err != nil {
		return nil, err
	}
	if property.Status != PropertyRequested {
		return nil, newError(KindNotFound, entityProperty, propertyID, "property %s has no pending registration request (status %s)", propertyID, property.Status)
	}

	property.Status = PropertyRegistered
	property.UpdatedBy = sess.Caller.ID
	property.UpdatedAt = sess.Now
	if err := s.ledger.Begin().PutProperty(property).Commit(); err != nil {
		return nil, err
	}
	return property, nil
}

// UpdateProperty lets the owner list a registered property for sale or withdraw it.
func (s *PropertyService) UpdateProperty(sess Session, propertyID, newStatus, ownerName, ownerAadhaarNumber string) (*Property, error) {
	property, err := s.find(propertyID)
	if err != nil {
		return nil, err
	}
	user, err := s.users.find(ownerName, ownerAadhaarNumber)
	if err != nil {
		return nil, err
	}
	status, err := RequireEnumeratedStatus(newStatus, UpdateStatuses)
	if err != nil {
		return nil, err
	}
	if err := RequireOwnership(user.Ref(), property); err != nil {
		return nil, err
	}
	if property.Status == PropertyRequested {
		return nil, newError(KindInvalidStatus, entityProperty, propertyID, "property %s has not been registered yet", propertyID)
	}

	property.Status = status
	property.UpdatedBy = sess.Caller.ID
	property.UpdatedAt = sess.Now
	if err := s.ledger.Begin().PutProperty(property).Commit(); err != nil {
		return nil, err
	}
	return property, nil
}

// PurchaseProperty moves a property on sale to the buyer. The buyer debit,
// seller credit and ownership transfer are committed as one write set.
func (s *PropertyService) PurchaseProperty(sess Session, propertyID, buyerName, buyerAadhaarNumber string) (*Purchase, error) {
	property, err := s.find(propertyID)
	if err != nil {
		return nil, err
	}
	buyer, err := s.users.find(buyerName, buyerAadhaarNumber)
	if err != nil {
		return nil, err
	}
	if property.Status != PropertyOnSale {
		return nil, newError(KindNotForSale, entityProperty, propertyID, "property %s is not for sale", propertyID)
	}
	if property.Owner == buyer.Ref() {
		return nil, newError(KindSelfPurchase, entityProperty, propertyID, "user %s already owns property %s", buyer.Name, propertyID)
	}
	if err := RequireApproved(buyer); err != nil {
		return nil, err
	}
	if buyer.CreditBalance < property.Price {
		return nil, newError(KindInsufficientBalance, entityUser, buyer.Name, "balance %d is below the price %d of property %s", buyer.CreditBalance, property.Price, propertyID)
	}

	seller, err := s.ledger.User(property.Owner)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, newError(KindLedgerCorrupt, entityProperty, propertyID, "owner %s of property %s does not exist", property.Owner.Name, propertyID)
	}

	buyer.CreditBalance -= property.Price
	buyer.UpdatedBy = sess.Caller.ID
	buyer.UpdatedAt = sess.Now

	seller.CreditBalance += property.Price
	seller.UpdatedBy = sess.Caller.ID
	seller.UpdatedAt = sess.Now

	property.Owner = buyer.Ref()
	property.Status = PropertyRegistered
	property.UpdatedBy = sess.Caller.ID
	property.UpdatedAt = sess.Now

	err = s.ledger.Begin().
		PutUser(buyer).
		PutUser(seller).
		PutProperty(property).
		Commit()
	if err != nil {
		return nil, err
	}
	return &Purchase{Property: property, Buyer: buyer, Seller: seller}, nil
}

// ViewProperty returns the current state of a property.
func (s *PropertyService) ViewProperty(propertyID string) (*Property, error) {
	return s.find(propertyID)
}

func (s *PropertyService) find(propertyID string) (*Property, error) {
	if err := requireArgs(entityProperty, "propertyId", propertyID); err != nil {
		return nil, err
	}
	property, err := s.ledger.Property(propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, newError(KindNotFound, entityProperty, propertyID, "no property exists with id %s", propertyID)
	}
	return property, nil
}
