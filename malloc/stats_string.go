package malloc

import (
	"github.com/chattrj3/brkalloc/memutils"
	"github.com/chattrj3/brkalloc/memutils/metadata"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// BuildStatsString renders the allocator's statistics as JSON. When detailedMap is true the
// output also lists every block in address order and the free list in search order.
func (a *Allocator) BuildStatsString(detailedMap bool) (string, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	var stats memutils.DetailedStatistics
	stats.Clear()
	err := a.addDetailedStatistics(&stats)
	if err != nil {
		return "", err
	}

	writer := jwriter.NewWriter()
	obj := writer.Object()

	totalObj := obj.Name("Total").Object()
	printDetailedStatistics(&totalObj, &stats)
	totalObj.End()

	if detailedMap {
		heapSize := 0
		if a.initialized {
			heapSize = a.extender.Size()
		}

		heapObj := obj.Name("Heap").Object()
		metadata.HeapJsonData(&heapObj, heapSize, a.freeList.SumFreeSize(), a.allocationCount, a.freeList.Len())
		a.printDetailedMap(&heapObj)
		heapObj.End()
	}

	obj.End()
	return string(writer.Bytes()), writer.Error()
}

func printDetailedStatistics(json *jwriter.ObjectState, stats *memutils.DetailedStatistics) {
	json.Name("BlockCount").Int(stats.BlockCount)
	json.Name("BlockBytes").Int(stats.BlockBytes)
	json.Name("AllocationCount").Int(stats.AllocationCount)
	json.Name("AllocationBytes").Int(stats.AllocationBytes)
	json.Name("UnusedRangeCount").Int(stats.UnusedRangeCount)
	json.Name("UnusedRangeBytes").Int(stats.UnusedRangeBytes)
	json.Name("FragmentedBytes").Int(stats.FragmentedBytes)
	json.Name("HeaderBytes").Int(stats.HeaderBytes)

	if stats.AllocationCount > 0 {
		json.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		json.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}
	if stats.UnusedRangeCount > 0 {
		json.Name("UnusedRangeSizeMin").Int(stats.UnusedRangeSizeMin)
		json.Name("UnusedRangeSizeMax").Int(stats.UnusedRangeSizeMax)
	}
}

func (a *Allocator) printDetailedMap(json *jwriter.ObjectState) {
	blocks := json.Name("Blocks").Array()
	_ = a.visitBlocks(func(offset int, h *metadata.BlockHeader) error {
		blockObj := blocks.Object()
		metadata.BlockJsonData(&blockObj, offset, h)
		blockObj.End()
		return nil
	})
	blocks.End()

	if !a.initialized {
		return
	}
	freeList := json.Name("FreeList").Array()
	_ = a.freeList.Visit(func(h *metadata.BlockHeader) error {
		freeList.Int(a.freeList.Offset(h))
		return nil
	})
	freeList.End()
}
