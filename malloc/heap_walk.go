package malloc

import (
	"context"
	"unsafe"

	"github.com/chattrj3/brkalloc/memutils"
	"github.com/chattrj3/brkalloc/memutils/metadata"
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"golang.org/x/exp/slog"
)

// visitBlocks walks every block in the heap in address order. Blocks are laid out back to back,
// each occupying its header and capacity rounded up to the extender alignment.
func (a *Allocator) visitBlocks(handleBlock func(offset int, h *metadata.BlockHeader) error) error {
	if !a.initialized {
		return nil
	}

	origin := a.extender.Origin()
	end := a.extender.Size()
	alignment := a.extender.Alignment()

	offset := 0
	for offset < end {
		h := (*metadata.BlockHeader)(unsafe.Add(origin, offset))
		err := h.Validate()
		if err != nil {
			return errors.Wrapf(err, "block at offset %d", offset)
		}

		err = handleBlock(offset, h)
		if err != nil {
			return err
		}

		offset += memutils.AlignUp(metadata.HeaderSize+h.Capacity(), alignment)
	}

	if offset != end {
		return errors.Newf("the last block ends at offset %d, past the end of the heap at %d", offset, end)
	}

	return nil
}

// Validate performs internal consistency checks on the heap and the free list. It walks every
// block and so should only be used for diagnostics.
func (a *Allocator) Validate() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	err := a.freeList.Validate()
	if err != nil {
		return err
	}

	freeOffsets := swiss.NewMap[int, struct{}](uint32(a.freeList.Len() + 1))
	var blockCount, allocationCount int

	err = a.visitBlocks(func(offset int, h *metadata.BlockHeader) error {
		blockCount++
		if h.IsFree() {
			freeOffsets.Put(offset, struct{}{})
		} else {
			allocationCount++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if blockCount != a.blockCount {
		return errors.Newf("the allocator has carved %d blocks, but the heap contains %d", a.blockCount, blockCount)
	}

	if allocationCount != a.allocationCount {
		return errors.Newf("the allocator has %d live allocations, but the heap contains %d", a.allocationCount, allocationCount)
	}

	if freeOffsets.Count() != a.freeList.Len() {
		return errors.Newf("the heap contains %d free blocks, but the free list contains %d", freeOffsets.Count(), a.freeList.Len())
	}

	return a.freeList.Visit(func(h *metadata.BlockHeader) error {
		offset := a.freeList.Offset(h)
		if !freeOffsets.Has(offset) {
			return errors.Newf("the free list refers to offset %d, which is not the start of a free block", offset)
		}
		return nil
	})
}

// AddDetailedStatistics sums this allocator's statistics into the statistics currently present
// in the provided memutils.DetailedStatistics object.
func (a *Allocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.addDetailedStatistics(stats)
}

func (a *Allocator) addDetailedStatistics(stats *memutils.DetailedStatistics) error {
	capacityBytes := 0
	err := a.visitBlocks(func(offset int, h *metadata.BlockHeader) error {
		stats.BlockCount++
		stats.BlockBytes += h.Capacity()
		capacityBytes += h.Capacity()

		if h.IsFree() {
			stats.AddUnusedRange(h.Capacity())
		} else {
			stats.AddAllocation(h.Size(), h.Capacity())
		}
		return nil
	})
	if err != nil {
		return err
	}

	if a.initialized {
		stats.HeaderBytes += a.extender.Size() - capacityBytes
	}
	return nil
}

// CalculateStatistics returns a fresh set of statistics for this allocator
func (a *Allocator) CalculateStatistics() (memutils.DetailedStatistics, error) {
	var stats memutils.DetailedStatistics
	stats.Clear()

	err := a.AddDetailedStatistics(&stats)
	return stats, err
}

// Destroy releases the heap if the allocator owns its extender. If any allocations are still live
// they are logged, nothing is released and an error is returned.
func (a *Allocator) Destroy() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.allocationCount > 0 {
		err := a.visitBlocks(func(offset int, h *metadata.BlockHeader) error {
			if h.IsAllocated() {
				a.logUnreleasedMemory(offset, h)
			}
			return nil
		})
		if err != nil {
			a.logger.LogAttrs(context.Background(),
				slog.LevelError,
				"[UNRELEASED MEMORY] error while iterating unreleased memory",
				slog.Any("error", err))
		}

		return errors.Newf("%d allocations were not released before the allocator was destroyed", a.allocationCount)
	}

	if a.createFlags&AllocatorCreateOwnsExtender != 0 {
		err := a.extender.Close()
		if err != nil {
			return err
		}
	}

	a.initialized = false
	a.freeList = metadata.FreeList{}
	a.blockCount = 0
	return nil
}

func (a *Allocator) logUnreleasedMemory(offset int, h *metadata.BlockHeader) {
	a.logger.LogAttrs(context.Background(), slog.LevelError, "[UNRELEASED MEMORY] unfreed allocation",
		slog.Int("offset", offset),
		slog.Int("size", h.Size()),
		slog.Int("capacity", h.Capacity()),
	)
}
