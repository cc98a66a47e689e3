// Package hostent packs a resolved IPv4 host into a caller-owned buffer in
// the layout glibc expects behind a struct hostent.
//
// The region starts with two pointer-sized slots. Slot 0 points at the
// address bytes and slot 1 is NULL: together they form h_addr_list, and
// slot 1 alone is the empty h_aliases list. The 4 address bytes follow the
// slots so they stay 4-byte aligned, then the NUL-terminated host name.
//
//	+--------+--------+------+-----------+
//	| &addr  |  NULL  | addr | name \0   |
//	+--------+--------+------+-----------+
//	^addrs    ^aliases
package hostent

import (
	"encoding/binary"
	"errors"
	"math/bits"

	"golang.org/x/sys/unix"
)

const (
	// PointerSize is the width of a pointer slot on this platform
	PointerSize = bits.UintSize / 8

	// AddrLen is the length of an IPv4 address record
	AddrLen = 4

	// AddrType is the only address family ever packed
	AddrType = unix.AF_INET
)

// ErrInsufficientCapacity means the region cannot hold the record; the
// caller should retry with a larger buffer
var ErrInsufficientCapacity = errors.New("buffer too small for host record")

// Layout names the offsets of every part of a packed record
type Layout struct {
	AddrList int // h_addr_list: {&addr, NULL}
	Aliases  int // h_aliases: {NULL}, shares the address list terminator
	Addr     int
	Name     int
	Size     int // total bytes required
}

// Required returns the number of bytes needed to pack name
func Required(name string) int {
	return len(name) + 1 + AddrLen + 2*PointerSize
}

// LayoutFor computes the layout of a record for name
func LayoutFor(name string) Layout {
	l := Layout{
		AddrList: 0,
		Aliases:  PointerSize,
		Addr:     2 * PointerSize,
	}
	l.Name = l.Addr + AddrLen
	l.Size = l.Name + len(name) + 1
	return l
}

// Region is a caller-owned output buffer. Base is the address pointer
// slots are relative to: 0 for Go callers, the C address of Buf[0] when
// the buffer lives in C memory.
type Region struct {
	Buf  []byte
	Base uintptr
}

// Record is the packed host entry. All slices alias the region's buffer.
type Record struct {
	Name     []byte   // without the NUL terminator
	Aliases  [][]byte // always empty
	AddrType int
	Length   int
	AddrList [][]byte // exactly one AddrLen-byte address
	Layout   Layout
}

// Pack writes the record for name and addr into r. Nothing is written when
// the region is too small.
func Pack(addr [4]byte, name string, r Region) (Record, error) {
	l := LayoutFor(name)
	if len(r.Buf) < l.Size {
		return Record{}, ErrInsufficientCapacity
	}

	w := writer{buf: r.Buf[:l.Size], base: r.Base}
	w.pointer(l.AddrList, l.Addr)
	w.null(l.Aliases)
	copy(w.buf[l.Addr:], addr[:])
	copy(w.buf[l.Name:], name)
	w.buf[l.Name+len(name)] = 0

	return Record{
		Name:     w.buf[l.Name : l.Name+len(name)],
		Aliases:  [][]byte{},
		AddrType: AddrType,
		Length:   AddrLen,
		AddrList: [][]byte{w.buf[l.Addr : l.Addr+AddrLen]},
		Layout:   l,
	}, nil
}

// writer stores pointer slots in native byte order
type writer struct {
	buf  []byte
	base uintptr
}

func (w writer) pointer(slot, target int) {
	w.put(slot, uint64(w.base)+uint64(target))
}

func (w writer) null(slot int) {
	w.put(slot, 0)
}

func (w writer) put(slot int, v uint64) {
	if PointerSize == 8 {
		binary.NativeEndian.PutUint64(w.buf[slot:], v)
		return
	}
	binary.NativeEndian.PutUint32(w.buf[slot:], uint32(v))
}

// Slot reads back the pointer stored at off, as written by Pack
func Slot(buf []byte, off int) uint64 {
	if PointerSize == 8 {
		return binary.NativeEndian.Uint64(buf[off:])
	}
	return uint64(binary.NativeEndian.Uint32(buf[off:]))
}
