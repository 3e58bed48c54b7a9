package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a registry failure.
type Kind string

const (
	KindNotFound                Kind = "NOT_FOUND"
	KindAlreadyExists           Kind = "ALREADY_EXISTS"
	KindUnauthorized            Kind = "UNAUTHORIZED"
	KindInvalidStatus           Kind = "INVALID_STATUS"
	KindInvalidTransactionToken Kind = "INVALID_TRANSACTION_TOKEN"
	KindInvalidArgument         Kind = "INVALID_ARGUMENT"
	KindNotApproved             Kind = "NOT_APPROVED"
	KindNotOwner                Kind = "NOT_OWNER"
	KindNotForSale              Kind = "NOT_FOR_SALE"
	KindSelfPurchase            Kind = "SELF_PURCHASE"
	KindInsufficientBalance     Kind = "INSUFFICIENT_BALANCE"
	KindLedgerUnavailable       Kind = "LEDGER_UNAVAILABLE"
	KindLedgerCorrupt           Kind = "LEDGER_CORRUPT"
)

var kinds = []Kind{
	KindNotFound,
	KindAlreadyExists,
	KindUnauthorized,
	KindInvalidStatus,
	KindInvalidTransactionToken,
	KindInvalidArgument,
	KindNotApproved,
	KindNotOwner,
	KindNotForSale,
	KindSelfPurchase,
	KindInsufficientBalance,
	KindLedgerUnavailable,
	KindLedgerCorrupt,
}

// Retryable reports whether a caller may resubmit the failed operation unchanged.
func (k Kind) Retryable() bool {
	return k == KindLedgerUnavailable
}

// Sentinels for errors.Is.
var (
	ErrNotFound                = &Error{Kind: KindNotFound}
	ErrAlreadyExists           = &Error{Kind: KindAlreadyExists}
	ErrUnauthorized            = &Error{Kind: KindUnauthorized}
	ErrInvalidStatus           = &Error{Kind: KindInvalidStatus}
	ErrInvalidTransactionToken = &Error{Kind: KindInvalidTransactionToken}
	ErrInvalidArgument         = &Error{Kind: KindInvalidArgument}
	ErrNotApproved             = &Error{Kind: KindNotApproved}
	ErrNotOwner                = &Error{Kind: KindNotOwner}
	ErrNotForSale              = &Error{Kind: KindNotForSale}
	ErrSelfPurchase            = &Error{Kind: KindSelfPurchase}
	ErrInsufficientBalance     = &Error{Kind: KindInsufficientBalance}
	ErrLedgerUnavailable       = &Error{Kind: KindLedgerUnavailable}
	ErrLedgerCorrupt           = &Error{Kind: KindLedgerCorrupt}
)

// Error is a registry failure with enough context to build a user-facing message.
type Error struct {
	Kind   Kind
	Entity string
	Key    string
	Msg    string
	Err    error
}

func newError(kind Kind, entity, key, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Entity: entity, Key: key, Msg: fmt.Sprintf(format, args...)}
}

// Error renders as "KIND: message" so the kind survives the trip through the
// peer and gateway as plain text.
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = strings.ToLower(strings.ReplaceAll(string(e.Kind), "_", " "))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any registry error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf extracts the kind from err, or "" for foreign errors.
func KindOf(err error) Kind {
	var rerr *Error
	if errors.As(err, &rerr) {
		return rerr.Kind
	}
	return ""
}

// ParseKind recovers the kind from an error message that crossed a process
// boundary. Unknown messages yield "".
func ParseKind(msg string) Kind {
	for _, k := range kinds {
		if strings.Contains(msg, string(k)+": ") {
			return k
		}
	}
	// MVCC conflicts are detected by the committing peer, not by the chaincode.
	if strings.Contains(msg, "MVCC_READ_CONFLICT") || strings.Contains(msg, "PHANTOM_READ_CONFLICT") {
		return KindLedgerUnavailable
	}
	return ""
}
