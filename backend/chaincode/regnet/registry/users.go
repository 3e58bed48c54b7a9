package registry

// UserService owns the User state machine: REQUESTED -> APPROVED, plus recharges.
type UserService struct {
	ledger *Ledger
}

// NewUserService returns a UserService backed by ledger.
func NewUserService(ledger *Ledger) *UserService {
	return &UserService{ledger: ledger}
}

// RequestNewUser records a self-service request for an account.
func (s *UserService) RequestNewUser(sess Session, name, email, phoneNumber, aadhaarNumber string) (*User, error) {
	if err := requireArgs(entityUser, "name", name, "aadhaarNumber", aadhaarNumber); err != nil {
		return nil, err
	}
	ref := UserRef{Name: name, AadhaarNumber: aadhaarNumber}

	existing, err := s.ledger.User(ref)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, newError(KindAlreadyExists, entityUser, name, "a user with this name and aadhaar number already exists")
	}

	user := &User{
		Name:          name,
		AadhaarNumber: aadhaarNumber,
		Email:         email,
		PhoneNumber:   phoneNumber,
		State:         UserRequested,
		CreatedBy:     sess.Caller.ID,
		CreatedAt:     sess.Now,
		UpdatedBy:     sess.Caller.ID,
		UpdatedAt:     sess.Now,
	}
	if err := s.ledger.Begin().PutUser(user).Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

// ApproveUser confirms a requested account. Any registrar may approve any user.
// Approving an already approved user returns it unchanged and writes nothing.
func (s *UserService) ApproveUser(sess Session, name, aadhaarNumber string) (*User, error) {
	user, err := s.find(name, aadhaarNumber)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(sess.Caller, Registrar); err != nil {
		return nil, err
	}
	if user.State != UserRequested {
		return user, nil
	}

	user.State = UserApproved
	user.CreditBalance = 0
	user.UpdatedBy = sess.Caller.ID
	user.UpdatedAt = sess.Now
	if err := s.ledger.Begin().PutUser(user).Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

// RechargeAccount credits the coins bought by a bank transaction token.
// The caller is not matched against the account: any participant may top up
// any approved user, since the amount comes only from the fixed token table.
func (s *UserService) RechargeAccount(sess Session, name, aadhaarNumber, bankTransactionID string) (*User, error) {
	user, err := s.find(name, aadhaarNumber)
	if err != nil {
		return nil, err
	}
	amount, ok := CoinsFor(bankTransactionID)
	if !ok {
		return nil, newError(KindInvalidTransactionToken, entityUser, name, "invalid bank transaction id %q", bankTransactionID)
	}
	if err := RequireApproved(user); err != nil {
		return nil, err
	}

	user.CreditBalance += amount
	user.UpdatedBy = sess.Caller.ID
	user.UpdatedAt = sess.Now
	if err := s.ledger.Begin().PutUser(user).Commit(); err != nil {
		return nil, err
	}
	return user, nil
}

// ViewUser returns the current state of a user.
func (s *UserService) ViewUser(name, aadhaarNumber string) (*User, error) {
	return s.find(name, aadhaarNumber)
}

func (s *UserService) find(name, aadhaarNumber string) (*User, error) {
	if err := requireArgs(entityUser, "name", name, "aadhaarNumber", aadhaarNumber); err != nil {
		return nil, err
	}
	return s.load(UserRef{Name: name, AadhaarNumber: aadhaarNumber})
}

func (s *UserService) load(ref UserRef) (*User, error) {
	user, err := s.ledger.User(ref)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(KindNotFound, entityUser, ref.Name, "no user exists with name %s and the given aadhaar number", ref.Name)
	}
	return user, nil
}
