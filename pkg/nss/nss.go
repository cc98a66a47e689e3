// Package nss adapts the resolver to the glibc NSS hosts contract: it
// checks the address family, packs the record and reduces every outcome to
// an nss_status with errno and h_errno.
package nss

import (
	"context"
	"errors"
	"fmt"

	"github.com/abcdlsj/nss-docker/pkg/hostent"
	"github.com/abcdlsj/nss-docker/pkg/resolver"
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

// Status mirrors enum nss_status
type Status int

const (
	StatusTryAgain Status = -2
	StatusUnavail  Status = -1
	StatusNotFound Status = 0
	StatusSuccess  Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusTryAgain:
		return "TRYAGAIN"
	case StatusUnavail:
		return "UNAVAIL"
	case StatusNotFound:
		return "NOTFOUND"
	case StatusSuccess:
		return "SUCCESS"
	default:
		return fmt.Sprintf("STATUS(%d)", int(s))
	}
}

// h_errno values from <netdb.h>
const (
	NetdbInternal = -1
	NetdbSuccess  = 0
	HostNotFound  = 1
	TryAgain      = 2
	NoRecovery    = 3
	NoAddress     = 4
)

// Resolver is the part of resolver.Resolver the module needs
type Resolver interface {
	Resolve(ctx context.Context, name string) resolver.Result
}

// Reply is everything an NSS entry point hands back to its caller
type Reply struct {
	Status Status
	Errno  unix.Errno
	HErrno int
	Record hostent.Record  // valid only when Status is StatusSuccess
	Result resolver.Result // the resolution behind the status, for diagnostics
}

// Module serves gethostbyname lookups
type Module struct {
	resolver Resolver
}

// New creates a Module on top of r
func New(r Resolver) *Module {
	return &Module{resolver: r}
}

// GetHostByName resolves name as an IPv4 host
func (m *Module) GetHostByName(ctx context.Context, name string, region hostent.Region) Reply {
	return m.GetHostByName2(ctx, name, unix.AF_INET, region)
}

// GetHostByName2 resolves name for family. Only AF_INET is served; the
// call never panics.
func (m *Module) GetHostByName2(ctx context.Context, name string, family int, region hostent.Region) (reply Reply) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Recovered from panic during host lookup", "name", name, "panic", r)
			reply = Reply{Status: StatusUnavail, Errno: unix.EIO, HErrno: NoRecovery}
		}
	}()

	if family != unix.AF_INET {
		return Reply{Status: StatusUnavail, Errno: unix.EAFNOSUPPORT, HErrno: NoAddress}
	}

	res := m.resolver.Resolve(ctx, name)
	reply = Reply{Result: res}

	switch res.Outcome {
	case resolver.Found:
	case resolver.AddressInvalid:
		reply.Status, reply.Errno, reply.HErrno = StatusNotFound, unix.EINVAL, NoAddress
		return reply
	default:
		reply.Status, reply.Errno, reply.HErrno = StatusNotFound, unix.ENOENT, HostNotFound
		return reply
	}

	rec, err := hostent.Pack(res.Addr, name, region)
	if err != nil {
		if errors.Is(err, hostent.ErrInsufficientCapacity) {
			reply.Status, reply.Errno, reply.HErrno = StatusTryAgain, unix.ERANGE, NetdbInternal
			return reply
		}
		reply.Status, reply.Errno, reply.HErrno = StatusUnavail, unix.EIO, NoRecovery
		return reply
	}

	reply.Status, reply.HErrno = StatusSuccess, NetdbSuccess
	reply.Record = rec
	return reply
}
