package metadata

import (
	"testing"
	"unsafe"

	"github.com/chattrj3/brkalloc/memutils/heap"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type testHeap struct {
	arena *heap.Arena
	list  FreeList
}

func newTestHeap(t *testing.T) *testHeap {
	arena, err := heap.NewArena(heap.Options{Reservation: 64 * 1024})
	require.NoError(t, err)

	return &testHeap{arena: arena}
}

func (h *testHeap) carve(t *testing.T, size int) *BlockHeader {
	block, err := h.arena.Grow(HeaderSize + size)
	require.NoError(t, err)
	if h.list.origin == nil {
		h.list.Init(slog.Default(), h.arena.Origin())
	}
	return NewBlockHeader(block, size)
}

func TestFreeListPushIsLIFO(t *testing.T) {
	th := newTestHeap(t)
	a := th.carve(t, 10)
	b := th.carve(t, 20)
	c := th.carve(t, 30)

	th.list.Push(a)
	th.list.Push(b)
	th.list.Push(c)

	require.Equal(t, 3, th.list.Len())
	require.Equal(t, 60, th.list.SumFreeSize())

	var order []*BlockHeader
	require.NoError(t, th.list.Visit(func(h *BlockHeader) error {
		order = append(order, h)
		return nil
	}))
	require.Equal(t, []*BlockHeader{c, b, a}, order)

	for _, h := range order {
		require.True(t, h.IsFree())
		require.Equal(t, 0, h.Size())
	}
	require.NoError(t, th.list.Validate())
}

func TestFreeListFirstFitTakesHead(t *testing.T) {
	th := newTestHeap(t)
	a := th.carve(t, 100)
	th.list.Push(a)

	got := th.list.TakeFirstFit(80)
	require.Equal(t, a, got)
	require.True(t, got.IsAllocated())
	require.Equal(t, 80, got.Size())
	require.Equal(t, 100, got.Capacity())
	require.True(t, th.list.IsEmpty())
	require.Nil(t, th.list.Head())
	require.NoError(t, th.list.Validate())
}

func TestFreeListFirstFitRepairsPredecessor(t *testing.T) {
	th := newTestHeap(t)
	big := th.carve(t, 200)
	small1 := th.carve(t, 10)
	small2 := th.carve(t, 20)

	// Order after pushes: small2 -> big -> small1
	th.list.Push(small1)
	th.list.Push(big)
	th.list.Push(small2)

	got := th.list.TakeFirstFit(50)
	require.Equal(t, big, got)
	require.Equal(t, small2, th.list.Head())
	require.Equal(t, small1, th.list.Next(small2))
	require.Nil(t, th.list.Next(small1))
	require.Equal(t, 2, th.list.Len())
	require.Equal(t, 30, th.list.SumFreeSize())
	require.NoError(t, th.list.Validate())
}

func TestFreeListFirstFitIsNotBestFit(t *testing.T) {
	th := newTestHeap(t)
	exact := th.carve(t, 40)
	loose := th.carve(t, 400)

	th.list.Push(exact)
	th.list.Push(loose)

	require.Equal(t, loose, th.list.TakeFirstFit(40))
	require.Equal(t, exact, th.list.TakeFirstFit(40))
}

func TestFreeListMissLeavesListUntouched(t *testing.T) {
	th := newTestHeap(t)
	a := th.carve(t, 100)
	b := th.carve(t, 50)
	th.list.Push(a)
	th.list.Push(b)

	require.Nil(t, th.list.TakeFirstFit(150))
	require.Equal(t, 2, th.list.Len())
	require.Equal(t, b, th.list.Head())
	require.Equal(t, a, th.list.Next(b))
	require.NoError(t, th.list.Validate())
}

func TestFreeListValidateDetectsCycle(t *testing.T) {
	th := newTestHeap(t)
	a := th.carve(t, 10)
	b := th.carve(t, 10)
	th.list.Push(a)
	th.list.Push(b)

	// a -> b -> a
	a.freeLink = th.list.offsetOf(b)
	require.Error(t, th.list.Validate())
}

func TestFreeListValidateDetectsAllocatedEntry(t *testing.T) {
	th := newTestHeap(t)
	a := th.carve(t, 10)
	th.list.Push(a)

	a.state = BlockAllocated
	require.Error(t, th.list.Validate())
}

func TestFreeListValidateDetectsCorruptState(t *testing.T) {
	th := newTestHeap(t)
	a := th.carve(t, 10)
	th.list.Push(a)

	*(*uintptr)(unsafe.Add(unsafe.Pointer(a), 3*unsafe.Sizeof(uintptr(0)))) = 42
	require.Error(t, th.list.Validate())
}
