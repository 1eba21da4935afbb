package vault

import (
	"errors"
	"fmt"
)

// Kind classifies every failure a Vault can report
type Kind int

const (
	KindKeyDerivation Kind = iota + 1
	KindDecryption
	KindServiceNotFound
	KindPersistence
	KindAlreadyExists
	KindNotInitialized
	KindInvalidArgument
)

// Sentinels for errors.Is; each matches every *Error of its kind
var (
	ErrKeyDerivation   = errors.New("key derivation failed")
	ErrDecryption      = errors.New("wrong passphrase or corrupted data")
	ErrServiceNotFound = errors.New("service not found")
	ErrPersistence     = errors.New("vault persistence failed")
	ErrAlreadyExists   = errors.New("vault already exists")
	ErrNotInitialized  = errors.New("vault not initialized")
	ErrInvalidArgument = errors.New("invalid argument")
)

func (k Kind) sentinel() error {
	switch k {
	case KindKeyDerivation:
		return ErrKeyDerivation
	case KindDecryption:
		return ErrDecryption
	case KindServiceNotFound:
		return ErrServiceNotFound
	case KindPersistence:
		return ErrPersistence
	case KindAlreadyExists:
		return ErrAlreadyExists
	case KindNotInitialized:
		return ErrNotInitialized
	case KindInvalidArgument:
		return ErrInvalidArgument
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single error type returned by Vault operations
type Error struct {
	Kind    Kind
	Service string // set for per-record failures
	Err     error  // underlying cause, may be nil
}

func newError(kind Kind, service string, err error) *Error {
	return &Error{Kind: kind, Service: service, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Service != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Service)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the error's kind
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// KindOf returns the Kind of err, or 0 if err is not a vault error
func KindOf(err error) Kind {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return 0
}
