package resolver

import (
	"context"
	"net/netip"
	"time"

	"github.com/abcdlsj/nss-docker/pkg/docker"
)

// Outcome is the terminal state of a resolution
type Outcome int

const (
	// NotOurDomain means the name does not carry the suffix; nothing was fetched
	NotOurDomain Outcome = iota
	// NotFound covers transport, decode, not-running and no-address failures
	NotFound
	// AddressInvalid means the bridge address exists but is not dotted-quad IPv4
	AddressInvalid
	// Found means Result.Addr holds the container address
	Found
)

func (o Outcome) String() string {
	switch o {
	case NotOurDomain:
		return "not_our_domain"
	case NotFound:
		return "not_found"
	case AddressInvalid:
		return "address_invalid"
	case Found:
		return "found"
	default:
		return "unknown"
	}
}

// Fetcher returns the raw inspect document of a container
type Fetcher interface {
	Fetch(ctx context.Context, key string) ([]byte, error)
}

// Result is the outcome of one resolution
type Result struct {
	Name    string
	Key     string // empty when Outcome is NotOurDomain
	Outcome Outcome
	Addr    [4]byte // set only when Outcome is Found
	Err     error   // *Error explaining NotFound and AddressInvalid
}

// IP returns the resolved address, or the zero Addr if none was found
func (r Result) IP() netip.Addr {
	if r.Outcome != Found {
		return netip.Addr{}
	}
	return netip.AddrFrom4(r.Addr)
}

// Resolver maps "<container><suffix>" names to bridge IPv4 addresses
type Resolver struct {
	matcher   Matcher
	fetcher   Fetcher
	observers []Observer
}

// Option configures a Resolver
type Option func(*Resolver)

// WithSuffix overrides DefaultSuffix
func WithSuffix(suffix string) Option {
	return func(r *Resolver) {
		r.matcher.Suffix = suffix
	}
}

// WithObserver registers o to be told about every resolution
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		r.observers = append(r.observers, o)
	}
}

// New creates a Resolver that fetches container documents through f
func New(f Fetcher, opts ...Option) *Resolver {
	r := &Resolver{
		matcher: Matcher{Suffix: DefaultSuffix},
		fetcher: f,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Matcher returns the matcher the resolver uses
func (r *Resolver) Matcher() Matcher {
	return r.matcher
}

// Resolve runs the full pipeline for name. It never fetches for names
// outside the suffix and checks running state before the address.
func (r *Resolver) Resolve(ctx context.Context, name string) Result {
	start := time.Now()
	res := r.resolve(ctx, name)

	elapsed := time.Since(start)
	for _, o := range r.observers {
		o.Observe(res, elapsed)
	}

	return res
}

func (r *Resolver) resolve(ctx context.Context, name string) Result {
	res := Result{Name: name, Outcome: NotOurDomain}
	if !r.matcher.Match(name) {
		return res
	}

	res.Key = r.matcher.Key(name)
	fail := func(outcome Outcome, kind Kind, err error) Result {
		res.Outcome = outcome
		res.Err = &Error{Kind: kind, Key: res.Key, Err: err}
		return res
	}

	raw, err := r.fetcher.Fetch(ctx, res.Key)
	if err != nil {
		return fail(NotFound, KindTransport, err)
	}

	state, err := docker.Decode(raw)
	if err != nil {
		return fail(NotFound, KindDecode, err)
	}

	if !state.Running() {
		return fail(NotFound, KindNotRunning, nil)
	}

	if state.BridgeIP == nil {
		return fail(NotFound, KindNoAddress, nil)
	}

	addr, err := netip.ParseAddr(*state.BridgeIP)
	if err != nil || !addr.Is4() {
		return fail(AddressInvalid, KindInvalidAddress, err)
	}

	res.Outcome = Found
	res.Addr = addr.As4()
	return res
}
