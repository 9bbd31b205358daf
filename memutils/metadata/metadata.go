// Package metadata describes the in-band bookkeeping of the first-fit allocator: the header that
// precedes every payload and the free list threaded through released headers.
package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
)

// HeapJsonData populates a json object with summary information about a heap
func HeapJsonData(json *jwriter.ObjectState, totalBytes, unusedBytes, allocationCount, unusedRangeCount int) {
	json.Name("TotalBytes").Int(totalBytes)
	json.Name("UnusedBytes").Int(unusedBytes)
	json.Name("Allocations").Int(allocationCount)
	json.Name("UnusedRanges").Int(unusedRangeCount)
}

// BlockJsonData populates a json object describing a single block located offset bytes from
// the heap origin
func BlockJsonData(json *jwriter.ObjectState, offset int, h *BlockHeader) {
	json.Name("Offset").Int(offset)
	json.Name("Type").String(h.State().String())
	json.Name("Size").Int(h.Size())
	json.Name("Capacity").Int(h.Capacity())
}
