package metadata

import (
	"unsafe"

	"github.com/chattrj3/brkalloc/memutils"
	"github.com/dolthub/swiss"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"
)

// FreeList is a singly linked chain of released blocks threaded through their headers. Blocks
// are pushed at the head and searched first-fit from the head, so the most recently released
// block that is large enough is always the one reused. Links are stored as offsets from the heap
// origin so that the list holds no Go pointers inside the heap.
type FreeList struct {
	logger    *slog.Logger
	origin    unsafe.Pointer
	head      uintptr
	count     int
	freeBytes int
}

var _ memutils.Validatable = &FreeList{}

// Init prepares the list for blocks carved from a heap starting at origin
func (l *FreeList) Init(logger *slog.Logger, origin unsafe.Pointer) {
	l.logger = logger
	l.origin = origin
	l.head = noLink
	l.count = 0
	l.freeBytes = 0
}

func (l *FreeList) offsetOf(h *BlockHeader) uintptr {
	return uintptr(unsafe.Pointer(h)) - uintptr(l.origin)
}

func (l *FreeList) at(offset uintptr) *BlockHeader {
	if offset == noLink {
		return nil
	}
	return (*BlockHeader)(unsafe.Add(l.origin, offset))
}

// Offset returns the distance in bytes between the heap origin and h
func (l *FreeList) Offset(h *BlockHeader) int {
	return int(l.offsetOf(h))
}

// Len returns the number of blocks on the list
func (l *FreeList) Len() int { return l.count }

// SumFreeSize returns the total capacity of the blocks on the list
func (l *FreeList) SumFreeSize() int { return l.freeBytes }

func (l *FreeList) IsEmpty() bool { return l.count == 0 }

// Head returns the most recently pushed block, or nil
func (l *FreeList) Head() *BlockHeader {
	if l.origin == nil {
		return nil
	}
	return l.at(l.head)
}

// Next returns the block after h on the list, or nil
func (l *FreeList) Next(h *BlockHeader) *BlockHeader {
	return l.at(h.freeLink)
}

// Push releases an allocated block onto the head of the list
func (l *FreeList) Push(h *BlockHeader) {
	h.markFree(l.head)
	l.head = l.offsetOf(h)
	l.count++
	l.freeBytes += h.Capacity()
}

// TakeFirstFit unlinks the first block whose capacity is at least size, marks it allocated with
// the new size and returns it. It returns nil, leaving the list untouched, if no block fits.
func (l *FreeList) TakeFirstFit(size int) *BlockHeader {
	var prev *BlockHeader
	step := 0

	for curr := l.Head(); curr != nil; curr = l.Next(curr) {
		if memutils.TraceEnabled {
			memutils.Trace(l.logger, "FreeList::TakeFirstFit walk",
				slog.Int("Step", step),
				slog.Int("Offset", int(l.offsetOf(curr))),
				slog.Int("Capacity", curr.Capacity()),
				slog.Int("Size", size))
		}

		if curr.Capacity() >= size {
			if prev != nil {
				prev.freeLink = curr.freeLink
			} else {
				l.head = curr.freeLink
			}

			l.count--
			l.freeBytes -= curr.Capacity()
			curr.markTaken(size)
			return curr
		}

		prev = curr
		step++
	}

	return nil
}

// Visit calls fn for each block on the list, head first, stopping at the first error
func (l *FreeList) Visit(fn func(h *BlockHeader) error) error {
	for curr := l.Head(); curr != nil; curr = l.Next(curr) {
		err := fn(curr)
		if err != nil {
			return err
		}
	}

	return nil
}

// Validate checks that every entry is a free block, that no block appears twice and that the
// cached counters agree with the chain.
func (l *FreeList) Validate() error {
	if l.origin == nil {
		if l.count != 0 {
			return errors.Errorf("uninitialized free list claims %d entries", l.count)
		}
		return nil
	}

	seen := swiss.NewMap[uintptr, struct{}](uint32(l.count + 1))
	var count, freeBytes int

	for curr := l.Head(); curr != nil; curr = l.Next(curr) {
		offset := l.offsetOf(curr)
		if seen.Has(offset) {
			return errors.Errorf("block at offset %d appears in the free list more than once", offset)
		}
		seen.Put(offset, struct{}{})

		if !curr.IsFree() {
			return errors.Errorf("block at offset %d is in the free list but is in state %s", offset, curr.State())
		}

		err := curr.Validate()
		if err != nil {
			return errors.Wrapf(err, "block at offset %d", offset)
		}

		count++
		freeBytes += curr.Capacity()
		if count > l.count {
			return errors.Errorf("the free list is longer than its recorded length %d", l.count)
		}
	}

	if count != l.count {
		return errors.Errorf("the free list records %d entries but %d were found", l.count, count)
	}

	if freeBytes != l.freeBytes {
		return errors.Errorf("the free list records %d free bytes but its blocks add up to %d", l.freeBytes, freeBytes)
	}

	return nil
}
