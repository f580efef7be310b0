package ledger

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine errors.
type ErrorKind string

const (
	InvalidAmount        ErrorKind = "invalid_amount"
	EmptyParticipantSet  ErrorKind = "empty_participant_set"
	SelfDebt             ErrorKind = "self_debt"
	ContributionMismatch ErrorKind = "contribution_mismatch"
	UnknownMember        ErrorKind = "unknown_member"
	InvalidMember        ErrorKind = "invalid_member"
	CurrencyMismatch     ErrorKind = "currency_mismatch"
)

// Sentinel errors. Match them with errors.Is.
var (
	// ErrInvalidAmount is returned for non-positive or non-finite amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrEmptyParticipantSet is returned when a split has nobody to split across.
	ErrEmptyParticipantSet = errors.New("empty participant set")
	// ErrSelfDebt describes a member owing themself. The engine drops such
	// debts silently and never returns this error; it exists so callers can
	// classify their own checks the same way.
	ErrSelfDebt = errors.New("self debt")
	// ErrContributionMismatch is returned when contributions do not sum to the total.
	ErrContributionMismatch = errors.New("contributions do not match total")
	// ErrUnknownMember is returned when a record references a member outside the roster.
	ErrUnknownMember = errors.New("unknown member")
	// ErrInvalidMember is returned for empty member identifiers.
	ErrInvalidMember = errors.New("invalid member")
	// ErrCurrencyMismatch is returned when a record's currency differs from
	// the one the computation runs in.
	ErrCurrencyMismatch = errors.New("currency mismatch")
)

var kindBySentinel = map[error]ErrorKind{
	ErrInvalidAmount:        InvalidAmount,
	ErrEmptyParticipantSet:  EmptyParticipantSet,
	ErrSelfDebt:             SelfDebt,
	ErrContributionMismatch: ContributionMismatch,
	ErrUnknownMember:        UnknownMember,
	ErrInvalidMember:        InvalidMember,
	ErrCurrencyMismatch:     CurrencyMismatch,
}

// KindOf returns the ErrorKind of err, or "" if err is not an engine error.
func KindOf(err error) ErrorKind {
	for sentinel, kind := range kindBySentinel {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return ""
}

// TransactionError reports why one transaction was rejected.
type TransactionError struct {
	TransactionID string
	Err           error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %q: %v", e.TransactionID, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Kind returns the classification of the underlying error.
func (e *TransactionError) Kind() ErrorKind {
	return KindOf(e.Err)
}

func rejectf(txID string, sentinel error, format string, args ...any) *TransactionError {
	return &TransactionError{
		TransactionID: txID,
		Err:           fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...)),
	}
}
