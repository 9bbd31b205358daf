package heap

import (
	"unsafe"

	"github.com/cockroachdb/errors"
)

// Arena is an Extender backed by a byte slice on the Go heap. The whole reservation is
// allocated up front, so it is best suited to tests and to modest heap sizes; the pages of a
// large reservation are only touched as the break reaches them.
type Arena struct {
	options Options
	buf     []byte
	origin  unsafe.Pointer
	brk     int
	limit   int
}

var _ Extender = &Arena{}

// NewArena creates an Arena. No memory is reserved until the first call to Grow.
func NewArena(options Options) (*Arena, error) {
	resolved, err := options.resolve()
	if err != nil {
		return nil, err
	}

	return &Arena{options: resolved}, nil
}

func (a *Arena) init() {
	// Over-reserve so the origin can be moved up to the requested alignment
	a.buf = make([]byte, a.options.Reservation+int(a.options.Alignment))

	base := uintptr(unsafe.Pointer(&a.buf[0]))
	padding := int((a.options.Alignment - uint(base%uintptr(a.options.Alignment))) % a.options.Alignment)
	a.origin = unsafe.Pointer(&a.buf[padding])
	a.limit = a.options.Reservation
}

func (a *Arena) Grow(n int) (unsafe.Pointer, error) {
	if a.buf == nil {
		if a.options.Reservation == 0 {
			return nil, errors.New("attempted to grow an arena that has been closed")
		}
		a.init()
	}

	newBrk, err := advance(a.brk, n, a.limit, a.options.Alignment)
	if err != nil {
		return nil, err
	}

	start := unsafe.Add(a.origin, a.brk)
	a.brk = newBrk
	return start, nil
}

func (a *Arena) Origin() unsafe.Pointer { return a.origin }

func (a *Arena) Size() int { return a.brk }

func (a *Arena) Alignment() uint { return a.options.Alignment }

func (a *Arena) Contains(p unsafe.Pointer) bool {
	return contains(a.origin, a.brk, p)
}

// Close drops the arena's reference to its backing slice. The memory is reclaimed by the
// garbage collector once no pointer into it remains.
func (a *Arena) Close() error {
	a.buf = nil
	a.origin = nil
	a.brk = 0
	a.limit = 0
	a.options.Reservation = 0
	return nil
}
