package malloc_test

import (
	"testing"
	"unsafe"

	"github.com/chattrj3/brkalloc/memutils"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestFreeNil(t *testing.T) {
	allocator, _ := newAllocator(t, 4096)

	require.NoError(t, allocator.Free(nil))

	_, err := allocator.Allocate(8)
	require.NoError(t, err)
	require.NoError(t, allocator.Free(nil))
	require.NoError(t, allocator.Validate())
}

func TestFreeTwice(t *testing.T) {
	allocator, _ := newAllocator(t, 4096)

	a, err := allocator.Allocate(24)
	require.NoError(t, err)
	require.NoError(t, allocator.Free(a))

	err = allocator.Free(a)
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.ErrDoubleFree))

	stats, err := allocator.CalculateStatistics()
	require.NoError(t, err)
	require.Equal(t, 1, stats.UnusedRangeCount)
	require.NoError(t, allocator.Validate())

	_, err = allocator.Bytes(a)
	require.True(t, errors.Is(err, memutils.ErrDoubleFree))
	_, err = allocator.UsableSize(a)
	require.True(t, errors.Is(err, memutils.ErrDoubleFree))
}

func TestFreeBeforeAnyAllocation(t *testing.T) {
	allocator, _ := newAllocator(t, 4096)

	var local [64]byte
	err := allocator.Free(unsafe.Pointer(&local[32]))
	require.True(t, errors.Is(err, memutils.ErrInvalidPointer))
}

func TestFreeForeignPointer(t *testing.T) {
	allocator, _ := newAllocator(t, 4096)

	a, err := allocator.Allocate(24)
	require.NoError(t, err)

	var local [64]byte
	err = allocator.Free(unsafe.Pointer(&local[32]))
	require.True(t, errors.Is(err, memutils.ErrInvalidPointer))

	_, err = allocator.Resize(unsafe.Pointer(&local[32]), 8)
	require.True(t, errors.Is(err, memutils.ErrInvalidPointer))

	require.NoError(t, allocator.Free(a))
	require.NoError(t, allocator.Validate())
}

func TestFreeInteriorPointer(t *testing.T) {
	allocator, _ := newAllocator(t, 4096)

	a, err := allocator.Allocate(64)
	require.NoError(t, err)
	b, err := allocator.Allocate(64)
	require.NoError(t, err)

	for _, offset := range []int{1, 8, 16, 63} {
		err = allocator.Free(unsafe.Add(a, offset))
		require.Truef(t, errors.Is(err, memutils.ErrInvalidPointer), "offset %d: %v", offset, err)
	}

	require.NoError(t, allocator.Free(b))
	require.NoError(t, allocator.Free(a))
	require.NoError(t, allocator.Validate())
}

func TestFreeMakesBlockAvailable(t *testing.T) {
	allocator, arena := newAllocator(t, 4096)

	ptrs := make([]unsafe.Pointer, 8)
	for i := range ptrs {
		ptr, err := allocator.Allocate(32)
		require.NoError(t, err)
		ptrs[i] = ptr
	}
	heapSize := arena.Size()

	for _, ptr := range ptrs {
		require.NoError(t, allocator.Free(ptr))
	}
	require.NoError(t, allocator.Validate())

	for range ptrs {
		_, err := allocator.Allocate(32)
		require.NoError(t, err)
	}
	require.Equal(t, heapSize, arena.Size())
	require.NoError(t, allocator.Validate())
}
