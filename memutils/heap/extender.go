// Package heap provides the growth primitive that allocators in this module carve their
// blocks from. An Extender behaves like a program break: it hands out a single contiguous,
// monotonically growing region of memory, and it never takes any of that region back while
// it is open.
package heap

//go:generate mockgen -source extender.go -destination mocks/extender.go -package mocks

import "unsafe"

const (
	// DefaultAlignment is the alignment used by extenders when none is requested. Every region
	// returned from Grow starts on a multiple of this value relative to a suitably aligned origin.
	DefaultAlignment uint = 16

	// DefaultReservation is the number of bytes of address space reserved by extenders when
	// no reservation size is requested. It is equal to 256Mb.
	DefaultReservation int = 256 * 1024 * 1024
)

// Extender is a contiguous heap that grows by appending to its end.
type Extender interface {
	// Grow extends the heap by at least n bytes and returns a pointer to the first of them, which
	// is the break as it stood before the call. The first successful call captures the heap origin.
	//
	// Grow rounds n up to Alignment(). When the heap cannot be extended, the returned error wraps
	// memutils.ErrOutOfMemory and the break does not move.
	Grow(n int) (unsafe.Pointer, error)
	// Origin returns the start of the heap, or nil if Grow has never succeeded
	Origin() unsafe.Pointer
	// Size returns the distance in bytes between the origin and the current break
	Size() int
	// Alignment returns the granularity that Grow rounds requests up to
	Alignment() uint
	// Contains reports whether p lies between the origin and the current break
	Contains(p unsafe.Pointer) bool
	// Close releases the reservation backing the heap. Every pointer obtained from Grow is invalid
	// afterward.
	Close() error
}

// Options configures the extenders in this package. Both fields may be left zero.
type Options struct {
	// Reservation is the maximum number of bytes the heap may grow to
	Reservation int
	// Alignment must be a power of two no smaller than the platform word size
	Alignment uint
}
