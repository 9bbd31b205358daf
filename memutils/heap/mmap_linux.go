//go:build linux

package heap

import (
	"unsafe"

	"github.com/chattrj3/brkalloc/memutils"
	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Mmap is an Extender backed by an anonymous private mapping outside the Go heap. The
// reservation is mapped PROT_NONE and pages are made readable and writable only as the break
// moves across them, which mirrors how a program break commits memory.
type Mmap struct {
	options   Options
	region    []byte
	origin    unsafe.Pointer
	brk       int
	committed int
	pageSize  int
}

var _ Extender = &Mmap{}

// NewMmap creates a Mmap extender. Address space is reserved on the first call to Grow.
func NewMmap(options Options) (*Mmap, error) {
	resolved, err := options.resolve()
	if err != nil {
		return nil, err
	}

	return &Mmap{
		options:  resolved,
		pageSize: unix.Getpagesize(),
	}, nil
}

func (m *Mmap) reserve() error {
	size := memutils.AlignUp(m.options.Reservation, uint(m.pageSize))
	region, err := unix.Mmap(-1, 0, size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_NORESERVE)
	if err != nil {
		return errors.Wrapf(memutils.ErrOutOfMemory, "mmap reservation of %d bytes failed: %v", size, err)
	}

	m.region = region
	m.origin = unsafe.Pointer(&region[0])
	return nil
}

func (m *Mmap) Grow(n int) (unsafe.Pointer, error) {
	if m.region == nil {
		if m.options.Reservation == 0 {
			return nil, errors.New("attempted to grow a mapping that has been closed")
		}
		err := m.reserve()
		if err != nil {
			return nil, err
		}
	}

	newBrk, err := advance(m.brk, n, len(m.region), m.options.Alignment)
	if err != nil {
		return nil, err
	}

	if newBrk > m.committed {
		commit := memutils.AlignUp(newBrk, uint(m.pageSize))
		if commit > len(m.region) {
			commit = len(m.region)
		}

		err = unix.Mprotect(m.region[m.committed:commit], unix.PROT_READ|unix.PROT_WRITE)
		if err != nil {
			return nil, errors.Wrapf(memutils.ErrOutOfMemory, "could not commit %d bytes: %v", commit-m.committed, err)
		}
		m.committed = commit
	}

	start := unsafe.Add(m.origin, m.brk)
	m.brk = newBrk
	return start, nil
}

func (m *Mmap) Origin() unsafe.Pointer { return m.origin }

func (m *Mmap) Size() int { return m.brk }

func (m *Mmap) Alignment() uint { return m.options.Alignment }

func (m *Mmap) Contains(p unsafe.Pointer) bool {
	return contains(m.origin, m.brk, p)
}

// Committed returns the number of bytes that have been made accessible so far.
func (m *Mmap) Committed() int { return m.committed }

func (m *Mmap) Close() error {
	if m.region == nil {
		m.options.Reservation = 0
		return nil
	}

	err := unix.Munmap(m.region)
	if err != nil {
		return errors.Wrap(err, "failed to unmap heap reservation")
	}

	m.region = nil
	m.origin = nil
	m.brk = 0
	m.committed = 0
	m.options.Reservation = 0
	return nil
}
