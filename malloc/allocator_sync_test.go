package malloc_test

import (
	"math/rand"
	"sync"
	"testing"
	"unsafe"

	"github.com/chattrj3/brkalloc/malloc"
	"github.com/chattrj3/brkalloc/memutils/heap"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

var errCorrupted = errors.New("payload was overwritten by another goroutine")

func TestInternallySynchronized(t *testing.T) {
	arena, err := heap.NewArena(heap.Options{Reservation: 8 << 20})
	require.NoError(t, err)

	allocator, err := malloc.New(nil, arena, malloc.CreateOptions{
		Flags: malloc.AllocatorCreateInternallySynchronized,
	})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))

			var live []unsafe.Pointer
			for i := 0; i < 500; i++ {
				if len(live) > 0 && rng.Intn(3) == 0 {
					idx := rng.Intn(len(live))
					err := allocator.Free(live[idx])
					if err != nil {
						errs <- err
						return
					}
					live = append(live[:idx], live[idx+1:]...)
					continue
				}

				size := rng.Intn(256)
				ptr, err := allocator.Allocate(size)
				if err != nil {
					errs <- err
					return
				}
				payload := unsafe.Slice((*byte)(ptr), size)
				for j := range payload {
					payload[j] = byte(seed)
				}
				live = append(live, ptr)
			}

			for _, ptr := range live {
				payload, err := allocator.Bytes(ptr)
				if err != nil {
					errs <- err
					return
				}
				for _, b := range payload {
					if b != byte(seed) {
						errs <- errCorrupted
						return
					}
				}
				err = allocator.Free(ptr)
				if err != nil {
					errs <- err
					return
				}
			}
		}(int64(w + 1))
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, allocator.Validate())
	require.NoError(t, allocator.Destroy())
}

func TestRandomOperationsKeepHeapConsistent(t *testing.T) {
	allocator, _ := newAllocator(t, 4<<20)
	rng := rand.New(rand.NewSource(42))

	type liveBlock struct {
		ptr     unsafe.Pointer
		size    int
		pattern byte
	}
	var live []liveBlock

	for i := 0; i < 2000; i++ {
		switch op := rng.Intn(4); {
		case op == 0 && len(live) > 0:
			idx := rng.Intn(len(live))
			require.NoError(t, allocator.Free(live[idx].ptr))
			live = append(live[:idx], live[idx+1:]...)
		case op == 1 && len(live) > 0:
			idx := rng.Intn(len(live))
			size := rng.Intn(512) + 1
			ptr, err := allocator.Resize(live[idx].ptr, size)
			require.NoError(t, err)

			payload, err := allocator.Bytes(ptr)
			require.NoError(t, err)
			kept := live[idx].size
			if size < kept {
				kept = size
			}
			requirePattern(t, payload[:kept], live[idx].pattern)
			for j := range payload {
				payload[j] = live[idx].pattern
			}
			live[idx].ptr = ptr
			live[idx].size = size
		default:
			size := rng.Intn(512)
			ptr, err := allocator.Allocate(size)
			require.NoError(t, err)

			pattern := byte(rng.Intn(255) + 1)
			payload := unsafe.Slice((*byte)(ptr), size)
			for j := range payload {
				payload[j] = pattern
			}
			live = append(live, liveBlock{ptr: ptr, size: size, pattern: pattern})
		}

		if i%100 == 0 {
			require.NoError(t, allocator.Validate())
		}
	}

	for _, block := range live {
		payload, err := allocator.Bytes(block.ptr)
		require.NoError(t, err)
		require.Len(t, payload, block.size)
		requirePattern(t, payload, block.pattern)
	}

	stats, err := allocator.CalculateStatistics()
	require.NoError(t, err)
	require.Equal(t, len(live), stats.AllocationCount)
	require.Equal(t, stats.BlockCount, stats.AllocationCount+stats.UnusedRangeCount)
	require.NoError(t, allocator.Validate())
}
