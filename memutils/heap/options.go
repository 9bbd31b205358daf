package heap

import (
	"unsafe"

	"github.com/chattrj3/brkalloc/memutils"
	"github.com/cockroachdb/errors"
)

const wordSize = uint(unsafe.Sizeof(uintptr(0)))

func (o Options) resolve() (Options, error) {
	if o.Reservation == 0 {
		o.Reservation = DefaultReservation
	}
	if o.Alignment == 0 {
		o.Alignment = DefaultAlignment
	}

	if o.Reservation < 0 {
		return o, errors.Newf("heap reservation must be positive, but was %d", o.Reservation)
	}

	err := memutils.CheckPow2(o.Alignment, "heap alignment")
	if err != nil {
		return o, err
	}
	if o.Alignment < wordSize {
		return o, errors.Newf("heap alignment %d is smaller than the word size %d", o.Alignment, wordSize)
	}

	return o, nil
}

// advance computes the break that results from growing a heap whose break is at brk by n bytes.
func advance(brk, n, limit int, alignment uint) (int, error) {
	if n <= 0 {
		return 0, errors.Newf("heap growth must be positive, but was %d", n)
	}

	aligned, ok := memutils.CheckedAlignUp(n, alignment)
	if !ok || aligned > limit-brk {
		return 0, errors.Wrapf(memutils.ErrOutOfMemory,
			"cannot grow heap by %d bytes: %d of %d bytes already in use", n, brk, limit)
	}

	return brk + aligned, nil
}

func contains(origin unsafe.Pointer, size int, p unsafe.Pointer) bool {
	if origin == nil || p == nil {
		return false
	}
	start := uintptr(origin)
	addr := uintptr(p)
	return addr >= start && addr-start < uintptr(size)
}
