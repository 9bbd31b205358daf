package malloc

import "unsafe"

// HeapGrowthCallback is called each time the allocator carves a new block from its heap,
// after the block has been initialized. block is the start of the block's header and size
// is the number of bytes the heap grew by before alignment.
type HeapGrowthCallback func(
	allocator *Allocator,
	block unsafe.Pointer,
	size int,
	userData interface{},
)

type MemoryCallbackOptions struct {
	HeapGrowth HeapGrowthCallback
	UserData   interface{}
}

type memoryCallbacks struct {
	Callbacks *MemoryCallbackOptions
	Allocator *Allocator
}

func (c *memoryCallbacks) HeapGrowth(block unsafe.Pointer, size int) {
	if c.Callbacks != nil && c.Callbacks.HeapGrowth != nil {
		c.Callbacks.HeapGrowth(c.Allocator, block, size, c.Callbacks.UserData)
	}
}
