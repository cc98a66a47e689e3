// Command libnss_docker is the glibc NSS "docker" hosts module.
//
//	go build -buildmode=c-shared -o libnss_docker.so.2 ./cmd/libnss_docker
//	install -m 0644 libnss_docker.so.2 /lib/x86_64-linux-gnu/
//
// and add "docker" to the hosts line of /etc/nsswitch.conf.
package main

/*
#include <errno.h>
#include <netdb.h>
#include <nss.h>
#include <stddef.h>
*/
import "C"

import (
	"context"
	"sync"
	"unsafe"

	"github.com/abcdlsj/nss-docker/pkg/config"
	"github.com/abcdlsj/nss-docker/pkg/hostent"
	"github.com/abcdlsj/nss-docker/pkg/nss"
	"github.com/abcdlsj/nss-docker/pkg/resolver"
	"github.com/charmbracelet/log"
	"golang.org/x/sys/unix"
)

var (
	moduleOnce sync.Once
	module     *nss.Module
)

// loadModule builds the module on first use from the system config file
func loadModule() *nss.Module {
	moduleOnce.Do(func() {
		cfg, err := config.LoadSystem()
		if err != nil {
			log.Error("Failed to load configuration, using defaults", "err", err)
			cfg = config.Default()
		}
		log.SetLevel(cfg.Level())

		r, _, err := cfg.NewResolver(resolver.LogObserver{})
		if err != nil {
			log.Error("Failed to create resolver", "err", err)
			return
		}
		module = nss.New(r)
	})
	return module
}

//export _nss_docker_gethostbyname_r
func _nss_docker_gethostbyname_r(name *C.char, result *C.struct_hostent, buf *C.char, buflen C.size_t, errnop *C.int, hErrnop *C.int) C.enum_nss_status {
	return _nss_docker_gethostbyname2_r(name, C.AF_INET, result, buf, buflen, errnop, hErrnop)
}

//export _nss_docker_gethostbyname2_r
func _nss_docker_gethostbyname2_r(name *C.char, af C.int, result *C.struct_hostent, buf *C.char, buflen C.size_t, errnop *C.int, hErrnop *C.int) (status C.enum_nss_status) {
	defer func() {
		if r := recover(); r != nil {
			setErrno(errnop, hErrnop, unix.EIO, nss.NoRecovery)
			status = C.NSS_STATUS_UNAVAIL
		}
	}()

	m := loadModule()
	if m == nil || name == nil || result == nil || buf == nil {
		setErrno(errnop, hErrnop, unix.ENOENT, nss.NoRecovery)
		return C.NSS_STATUS_UNAVAIL
	}

	region := hostent.Region{
		Buf:  unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(buflen)),
		Base: uintptr(unsafe.Pointer(buf)),
	}

	reply := m.GetHostByName2(context.Background(), C.GoString(name), int(af), region)

	if reply.Status != nss.StatusSuccess {
		setErrno(errnop, hErrnop, reply.Errno, reply.HErrno)
	}

	switch reply.Status {
	case nss.StatusSuccess:
		fill(result, buf, reply.Record)
		return C.NSS_STATUS_SUCCESS
	case nss.StatusNotFound:
		return C.NSS_STATUS_NOTFOUND
	case nss.StatusTryAgain:
		return C.NSS_STATUS_TRYAGAIN
	default:
		return C.NSS_STATUS_UNAVAIL
	}
}

func setErrno(errnop, hErrnop *C.int, errno unix.Errno, herrno int) {
	if errnop != nil {
		*errnop = C.int(errno)
	}
	if hErrnop != nil {
		*hErrnop = C.int(herrno)
	}
}

// fill points result at the record packed into buf
func fill(result *C.struct_hostent, buf *C.char, rec hostent.Record) {
	base := unsafe.Pointer(buf)

	result.h_name = (*C.char)(unsafe.Add(base, rec.Layout.Name))
	result.h_aliases = (**C.char)(unsafe.Add(base, rec.Layout.Aliases))
	result.h_addrtype = C.int(rec.AddrType)
	result.h_length = C.int(rec.Length)
	result.h_addr_list = (**C.char)(unsafe.Add(base, rec.Layout.AddrList))
}

func main() {}
