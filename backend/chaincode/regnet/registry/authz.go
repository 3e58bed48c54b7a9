package registry

import (
	"strings"
	"time"
)

// Role is the organisational role of a caller.
type Role int

const (
	Participant Role = iota
	Registrar
)

func (r Role) String() string {
	if r == Registrar {
		return "registrar"
	}
	return "participant"
}

// Identity is the authenticated invoker of an operation.
type Identity struct {
	ID    string
	MSPID string
	Role  Role
}

// Session carries everything an operation needs from its invocation.
// Now must be the same on every endorser, so it comes from the transaction, not the clock.
type Session struct {
	Caller Identity
	Now    time.Time
	TxID   string
}

// RequireRole fails with Unauthorized unless the caller holds role.
func RequireRole(caller Identity, role Role) error {
	if caller.Role != role {
		return newError(KindUnauthorized, "", "", "caller %q is not a %s", caller.ID, role)
	}
	return nil
}

// RequireEnumeratedStatus resolves a caller-supplied status name, failing with
// InvalidStatus when it is outside allowed.
func RequireEnumeratedStatus(value string, allowed []string) (PropertyStatus, error) {
	for _, name := range allowed {
		if name == value {
			return propertyStatuses[name], nil
		}
	}
	return "", newError(KindInvalidStatus, entityProperty, "", "invalid property status %q, expected one of %s", value, strings.Join(allowed, ", "))
}

// RequireOwnership fails with NotOwner unless caller owns property.
func RequireOwnership(caller UserRef, property *Property) error {
	if property.Owner != caller {
		return newError(KindNotOwner, entityProperty, property.PropertyID, "user %s is not the owner of property %s", caller.Name, property.PropertyID)
	}
	return nil
}

// RequireApproved fails with NotApproved unless the user may transact.
func RequireApproved(user *User) error {
	if !user.Approved() {
		return newError(KindNotApproved, entityUser, user.Name, "user %s has not been approved by a registrar", user.Name)
	}
	return nil
}

// requireArgs takes name/value pairs and rejects the first blank value.
func requireArgs(entity string, pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return newError(KindInvalidArgument, entity, "", "%s is required", pairs[i])
		}
	}
	return nil
}
