package malloc_test

import (
	"testing"
	"unsafe"

	"github.com/chattrj3/brkalloc/malloc"
	"github.com/chattrj3/brkalloc/memutils"
	"github.com/chattrj3/brkalloc/memutils/heap"
	"github.com/chattrj3/brkalloc/memutils/heap/mocks"
	"github.com/chattrj3/brkalloc/memutils/metadata"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// mockOverArena returns a mock extender that behaves like arena, except that Grow calls must be
// set up by the test
func mockOverArena(ctrl *gomock.Controller, arena *heap.Arena) *mocks.MockExtender {
	extender := mocks.NewMockExtender(ctrl)
	extender.EXPECT().Origin().DoAndReturn(arena.Origin).AnyTimes()
	extender.EXPECT().Size().DoAndReturn(arena.Size).AnyTimes()
	extender.EXPECT().Alignment().DoAndReturn(arena.Alignment).AnyTimes()
	extender.EXPECT().Contains(gomock.Any()).DoAndReturn(arena.Contains).AnyTimes()
	return extender
}

func TestAllocateExtenderFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	arena, err := heap.NewArena(heap.Options{Reservation: 4096})
	require.NoError(t, err)
	extender := mockOverArena(ctrl, arena)

	gomock.InOrder(
		extender.EXPECT().Grow(metadata.HeaderSize+100).DoAndReturn(arena.Grow),
		extender.EXPECT().Grow(metadata.HeaderSize+500).
			Return(unsafe.Pointer(nil), errors.Wrap(memutils.ErrOutOfMemory, "heap exhausted")),
	)

	allocator, err := malloc.New(nil, extender, malloc.CreateOptions{})
	require.NoError(t, err)

	a, err := allocator.Allocate(100)
	require.NoError(t, err)
	fill(t, allocator, a, 0x5A)
	require.NoError(t, allocator.Free(a))

	_, err = allocator.Allocate(500)
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))

	// The failed request did not consume the free block
	b, err := allocator.Allocate(100)
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.NoError(t, allocator.Validate())
}

func TestResizeExtenderFailureKeepsBlock(t *testing.T) {
	ctrl := gomock.NewController(t)

	arena, err := heap.NewArena(heap.Options{Reservation: 4096})
	require.NoError(t, err)
	extender := mockOverArena(ctrl, arena)

	gomock.InOrder(
		extender.EXPECT().Grow(metadata.HeaderSize+64).DoAndReturn(arena.Grow),
		extender.EXPECT().Grow(metadata.HeaderSize+10000).
			Return(unsafe.Pointer(nil), errors.Wrap(memutils.ErrOutOfMemory, "heap exhausted")),
	)

	allocator, err := malloc.New(nil, extender, malloc.CreateOptions{})
	require.NoError(t, err)

	a, err := allocator.Allocate(64)
	require.NoError(t, err)
	fill(t, allocator, a, 0x42)

	b, err := allocator.Resize(a, 10000)
	require.Error(t, err)
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))
	require.Nil(t, b)

	payload, err := allocator.Bytes(a)
	require.NoError(t, err)
	require.Len(t, payload, 64)
	requirePattern(t, payload, 0x42)

	require.NoError(t, allocator.Free(a))
	require.NoError(t, allocator.Validate())
}

func TestAllocateReservationExhausted(t *testing.T) {
	allocator, arena := newAllocator(t, 1024)

	a, err := allocator.Allocate(512)
	require.NoError(t, err)
	heapSize := arena.Size()

	_, err = allocator.Allocate(1024)
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))
	require.Equal(t, heapSize, arena.Size())

	_, err = allocator.ZeroAllocate(2, 512)
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))

	// Whatever is left still serves smaller requests
	b, err := allocator.Allocate(128)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
	require.NoError(t, allocator.Validate())
}

func TestAllocateUnrepresentableSize(t *testing.T) {
	allocator, arena := newAllocator(t, 1024)

	_, err := allocator.Allocate(int(^uint(0) >> 1))
	require.True(t, errors.Is(err, memutils.ErrOutOfMemory))
	require.Equal(t, 0, arena.Size())
}

func TestHeapGrowthCallback(t *testing.T) {
	arena, err := heap.NewArena(heap.Options{Reservation: 4096})
	require.NoError(t, err)

	type growth struct {
		block unsafe.Pointer
		size  int
	}
	var growths []growth

	allocator, err := malloc.New(nil, arena, malloc.CreateOptions{
		MemoryCallbackOptions: &malloc.MemoryCallbackOptions{
			HeapGrowth: func(allocator *malloc.Allocator, block unsafe.Pointer, size int, userData interface{}) {
				require.Equal(t, "user data", userData)
				growths = append(growths, growth{block: block, size: size})
			},
			UserData: "user data",
		},
	})
	require.NoError(t, err)

	a, err := allocator.Allocate(40)
	require.NoError(t, err)
	require.NoError(t, allocator.Free(a))

	_, err = allocator.Allocate(20)
	require.NoError(t, err)

	_, err = allocator.Allocate(70)
	require.NoError(t, err)

	require.Equal(t, []growth{
		{block: arena.Origin(), size: metadata.HeaderSize + 40},
		{block: unsafe.Add(arena.Origin(), blockSpan(40)), size: metadata.HeaderSize + 70},
	}, growths)
}
