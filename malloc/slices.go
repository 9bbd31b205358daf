package malloc

import (
	"fmt"
	"unsafe"
)

// SliceAllocator adapts an Allocator to the slice-based interface used by Apache Arrow's
// memory.Allocator, so that Arrow buffers and builders can be backed by the heap without any
// change to the code using them.
//
// Like Arrow's Go allocator, it returns zeroed memory from Allocate and zeroes the grown part of a
// buffer in Reallocate. Allocation failures and invalid frees panic, since the interface has no
// way to report them.
type SliceAllocator struct {
	allocator *Allocator
}

// NewSliceAllocator wraps allocator. The returned value shares its synchronization behavior.
func NewSliceAllocator(allocator *Allocator) *SliceAllocator {
	return &SliceAllocator{allocator: allocator}
}

// Allocator returns the allocator backing this adapter
func (s *SliceAllocator) Allocator() *Allocator { return s.allocator }

func (s *SliceAllocator) Allocate(size int) []byte {
	ptr, err := s.allocator.ZeroAllocate(size, 1)
	if err != nil {
		panic(fmt.Sprintf("failed to allocate %d bytes: %+v", size, err))
	}

	return unsafe.Slice((*byte)(ptr), size)
}

func (s *SliceAllocator) Reallocate(size int, b []byte) []byte {
	ptr := unsafe.SliceData(b)
	if ptr == nil {
		return s.Allocate(size)
	}

	newPtr, err := s.allocator.Resize(unsafe.Pointer(ptr), size)
	if err != nil {
		panic(fmt.Sprintf("failed to reallocate %d bytes to %d: %+v", len(b), size, err))
	}
	if newPtr == nil {
		return nil
	}

	out := unsafe.Slice((*byte)(newPtr), size)
	for i := len(b); i < size; i++ {
		out[i] = 0
	}
	return out
}

func (s *SliceAllocator) Free(b []byte) {
	ptr := unsafe.SliceData(b)
	if ptr == nil {
		return
	}

	err := s.allocator.Free(unsafe.Pointer(ptr))
	if err != nil {
		panic(fmt.Sprintf("failed to free %d bytes: %+v", len(b), err))
	}
}
