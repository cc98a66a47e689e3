package resolver

import (
	"errors"
	"fmt"
)

// Kind classifies why a resolution did not produce an address
type Kind int

const (
	KindTransport Kind = iota + 1
	KindDecode
	KindNotRunning
	KindNoAddress
	KindInvalidAddress
)

var (
	ErrTransport      = errors.New("container lookup failed")
	ErrDecode         = errors.New("container document unusable")
	ErrNotRunning     = errors.New("container not running")
	ErrNoAddress      = errors.New("container has no bridge address")
	ErrInvalidAddress = errors.New("container bridge address is not IPv4")
)

var kindSentinels = map[Kind]error{
	KindTransport:      ErrTransport,
	KindDecode:         ErrDecode,
	KindNotRunning:     ErrNotRunning,
	KindNoAddress:      ErrNoAddress,
	KindInvalidAddress: ErrInvalidAddress,
}

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	case KindNotRunning:
		return "not_running"
	case KindNoAddress:
		return "no_address"
	case KindInvalidAddress:
		return "invalid_address"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error keeps the cause of a failed resolution that the NSS status folds away
type Error struct {
	Kind Kind
	Key  string
	Err  error // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("resolve %s: %v", e.Key, kindSentinels[e.Kind])
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is matches the sentinel of the error's kind, e.g. errors.Is(err, ErrNotRunning)
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 when err is not a resolution error
func KindOf(err error) Kind {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind
	}
	return 0
}
