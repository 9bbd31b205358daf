// Package malloc implements a first-fit allocator over a single contiguous heap.
//
// Every block carries a metadata.BlockHeader immediately before its payload. Released blocks are
// pushed onto a LIFO free list and reused, without splitting, by the first later request that
// fits inside them. When the free list has nothing suitable the heap is extended by exactly the
// size requested. Memory is never returned to the heap extender while the allocator is alive.
package malloc

import (
	"unsafe"

	"github.com/JohnCGriffin/overflow"
	"github.com/chattrj3/brkalloc/malloc/internal/utils"
	"github.com/chattrj3/brkalloc/memutils"
	"github.com/chattrj3/brkalloc/memutils/heap"
	"github.com/chattrj3/brkalloc/memutils/metadata"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

// Allocator hands out payloads carved from a heap.Extender. Its zero value is not usable; create
// one with New.
//
// Unless it was created with AllocatorCreateInternallySynchronized, an Allocator must not be used
// from more than one goroutine at a time.
type Allocator struct {
	mutex       utils.OptionalMutex
	logger      *slog.Logger
	extender    heap.Extender
	createFlags CreateFlags
	callbacks   *memoryCallbacks

	initialized     bool
	freeList        metadata.FreeList
	blockCount      int
	allocationCount int
}

var _ memutils.Validatable = &Allocator{}

// Allocate returns a pointer to a payload of at least size bytes. The content of the payload is
// indeterminate. A size of zero returns a unique pointer to an empty payload.
//
// On failure the returned error wraps memutils.ErrOutOfMemory (or memutils.ErrInvalidSize for a
// negative size) and no existing block is affected.
func (a *Allocator) Allocate(size int) (unsafe.Pointer, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.allocate(size)
}

// ZeroAllocate returns a pointer to a payload of count*size bytes, all of which are zero.
// A product that cannot be represented fails with memutils.ErrOutOfMemory.
func (a *Allocator) ZeroAllocate(count, size int) (unsafe.Pointer, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	total, err := memutils.ArraySize(count, size)
	if err != nil {
		return nil, err
	}

	ptr, err := a.allocate(total)
	if err != nil {
		return nil, err
	}

	payload := metadata.HeaderOf(ptr).Bytes()
	for i := range payload {
		payload[i] = 0
	}

	return ptr, nil
}

// Free releases the block whose payload starts at ptr so that later allocations may reuse it.
// Freeing nil does nothing.
//
// Pointers that do not refer to a live block are reported with memutils.ErrInvalidPointer or
// memutils.ErrDoubleFree, where detecting that is cheap. Detection is not exhaustive: a pointer
// that was released and then handed out again by a later allocation cannot be told apart from
// the new owner's pointer.
func (a *Allocator) Free(ptr unsafe.Pointer) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.free(ptr)
}

// Resize changes the size of the payload at ptr to newSize bytes and returns a pointer to it,
// which may differ from ptr.
//
// A nil ptr behaves exactly as Allocate(newSize). A newSize of zero behaves exactly as Free(ptr)
// and returns nil. If newSize fits within the capacity the block was created with, the block is
// adjusted in place and ptr is returned. Otherwise a new block is allocated, the first
// min(old size, newSize) bytes are copied into it and the old block is released.
//
// If the new block cannot be allocated, the error is returned and ptr remains valid with its
// content unchanged.
func (a *Allocator) Resize(ptr unsafe.Pointer, newSize int) (unsafe.Pointer, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.resize(ptr, newSize)
}

// UsableSize returns the capacity of the live block at ptr, which may exceed the size most
// recently requested for it
func (a *Allocator) UsableSize(ptr unsafe.Pointer) (int, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	h, err := a.liveHeaderOf(ptr)
	if err != nil {
		return 0, err
	}
	return h.Capacity(), nil
}

// Bytes returns the payload at ptr as a slice whose length is the size most recently requested
// for the block. The slice aliases allocator memory and must not be used after the block is
// released.
func (a *Allocator) Bytes(ptr unsafe.Pointer) ([]byte, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	h, err := a.liveHeaderOf(ptr)
	if err != nil {
		return nil, err
	}
	return h.Bytes(), nil
}

func (a *Allocator) allocate(size int) (unsafe.Pointer, error) {
	if size < 0 {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "attempted to allocate %d bytes", size)
	}

	if !a.initialized {
		return a.bootstrap(size)
	}

	block := a.freeList.TakeFirstFit(size)
	if block != nil {
		if memutils.TraceEnabled {
			memutils.Trace(a.logger, "Allocator::allocate free list hit",
				slog.Int("Size", size),
				slog.Int("Capacity", block.Capacity()))
		}

		if memutils.PoisonFreedMemory && !memutils.ValidatePoison(block.CapacityBytes()) {
			panic("MEMORY CORRUPTION DETECTED IN FREED ALLOCATION")
		}

		a.allocationCount++
		memutils.DebugValidate(&a.freeList)
		return block.Payload(), nil
	}

	return a.carve(size)
}

func (a *Allocator) bootstrap(size int) (unsafe.Pointer, error) {
	ptr, err := a.carve(size)
	if err != nil {
		return nil, err
	}

	origin := a.extender.Origin()
	a.freeList.Init(a.logger, origin)
	a.initialized = true

	if memutils.TraceEnabled {
		memutils.Trace(a.logger, "Allocator::bootstrap heap initialized",
			slog.Any("Origin", origin),
			slog.Int("Size", size))
	}

	return ptr, nil
}

// carve extends the heap by a brand-new block holding exactly size bytes
func (a *Allocator) carve(size int) (unsafe.Pointer, error) {
	total, ok := overflow.Add(size, metadata.HeaderSize)
	if !ok {
		return nil, errors.Wrapf(memutils.ErrOutOfMemory, "a block of %d bytes cannot be represented", size)
	}

	block, err := a.extender.Grow(total)
	if err != nil {
		a.logger.Debug("Allocator::carve could not extend heap",
			slog.Int("Size", size),
			slog.Int("HeapSize", a.extender.Size()),
			slog.Any("error", err))
		return nil, errors.Wrapf(err, "could not allocate %d bytes", size)
	}

	h := metadata.NewBlockHeader(block, size)
	a.blockCount++
	a.allocationCount++

	if memutils.TraceEnabled {
		memutils.Trace(a.logger, "Allocator::carve heap grown",
			slog.Int("Size", size),
			slog.Int("HeapSize", a.extender.Size()))
	}

	a.callbacks.HeapGrowth(block, total)
	return h.Payload(), nil
}

func (a *Allocator) free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}

	h, err := a.liveHeaderOf(ptr)
	if err != nil {
		return err
	}

	if memutils.PoisonFreedMemory {
		memutils.WritePoison(h.CapacityBytes())
	}

	a.freeList.Push(h)
	a.allocationCount--

	if memutils.TraceEnabled {
		memutils.Trace(a.logger, "Allocator::free block released",
			slog.Int("Capacity", h.Capacity()),
			slog.Int("FreeBlocks", a.freeList.Len()))
	}

	memutils.DebugValidate(&a.freeList)
	return nil
}

func (a *Allocator) resize(ptr unsafe.Pointer, newSize int) (unsafe.Pointer, error) {
	if ptr == nil {
		return a.allocate(newSize)
	}

	if newSize < 0 {
		return nil, errors.Wrapf(memutils.ErrInvalidSize, "attempted to resize to %d bytes", newSize)
	}

	if newSize == 0 {
		return nil, a.free(ptr)
	}

	h, err := a.liveHeaderOf(ptr)
	if err != nil {
		return nil, err
	}

	if newSize <= h.Capacity() {
		err = h.SetSize(newSize)
		if err != nil {
			return nil, err
		}

		if memutils.TraceEnabled {
			memutils.Trace(a.logger, "Allocator::resize in place",
				slog.Int("Size", newSize),
				slog.Int("Capacity", h.Capacity()))
		}
		return ptr, nil
	}

	newPtr, err := a.allocate(newSize)
	if err != nil {
		return nil, err
	}

	copy(metadata.HeaderOf(newPtr).Bytes(), h.Bytes())

	err = a.free(ptr)
	if err != nil {
		return nil, err
	}

	return newPtr, nil
}

// headerOf locates the header of the block whose payload starts at ptr, rejecting pointers that
// cannot possibly be payload starts without touching memory outside the heap.
func (a *Allocator) headerOf(ptr unsafe.Pointer) (*metadata.BlockHeader, error) {
	if !a.initialized {
		return nil, errors.Wrapf(memutils.ErrInvalidPointer, "%p: nothing has been allocated", ptr)
	}

	origin := a.extender.Origin()
	start, addr := uintptr(origin), uintptr(ptr)
	if addr < start+uintptr(metadata.HeaderSize) || addr-start > uintptr(a.extender.Size()) {
		return nil, errors.Wrapf(memutils.ErrInvalidPointer, "%p lies outside the heap", ptr)
	}

	offset := int(addr-start) - metadata.HeaderSize
	if offset%int(a.extender.Alignment()) != 0 {
		return nil, errors.Wrapf(memutils.ErrInvalidPointer, "%p does not point at the start of a payload", ptr)
	}

	block := unsafe.Add(origin, offset)
	if !a.extender.Contains(block) {
		return nil, errors.Wrapf(memutils.ErrInvalidPointer, "the header of %p lies outside the heap", ptr)
	}

	h := (*metadata.BlockHeader)(block)
	if !h.IsAllocated() && !h.IsFree() {
		return nil, errors.Wrapf(memutils.ErrInvalidPointer, "%p is not preceded by a block header", ptr)
	}

	return h, nil
}

func (a *Allocator) liveHeaderOf(ptr unsafe.Pointer) (*metadata.BlockHeader, error) {
	if ptr == nil {
		return nil, errors.Wrap(memutils.ErrInvalidPointer, "nil pointer")
	}

	h, err := a.headerOf(ptr)
	if err != nil {
		return nil, err
	}

	if h.IsFree() {
		return nil, errors.Wrapf(memutils.ErrDoubleFree, "%p", ptr)
	}

	return h, nil
}
