package metadata

import (
	"unsafe"

	"github.com/pkg/errors"
)

// BlockState identifies whether a block is owned by a caller or by the free list
type BlockState uintptr

const (
	// BlockAllocated marks a block whose payload belongs to a caller
	BlockAllocated BlockState = 0xA110CA7E
	// BlockFree marks a block that is threaded onto the free list
	BlockFree BlockState = 0xF4EEB10C
)

var blockStateMapping = map[BlockState]string{
	BlockAllocated: "Allocated",
	BlockFree:      "Free",
}

func (s BlockState) String() string {
	str, ok := blockStateMapping[s]
	if !ok {
		return "Corrupt"
	}
	return str
}

// noLink terminates the free list
const noLink = ^uintptr(0)

// BlockHeader is the record stored immediately before every payload handed out by an allocator.
// Headers live inside the heap itself and are only ever accessed through pointers produced by
// NewBlockHeader or HeaderOf; they are never copied by value.
type BlockHeader struct {
	capacity uintptr
	size     uintptr
	// freeLink is the offset of the next free header from the heap origin, or noLink
	freeLink uintptr
	state    BlockState
}

// HeaderSize is the number of bytes between the start of a block and its payload
const HeaderSize int = int(unsafe.Sizeof(BlockHeader{}))

// NewBlockHeader initializes the header of a freshly carved block starting at block, whose
// payload holds exactly size bytes. The block is returned in the allocated state.
func NewBlockHeader(block unsafe.Pointer, size int) *BlockHeader {
	h := (*BlockHeader)(block)
	h.capacity = uintptr(size)
	h.size = uintptr(size)
	h.freeLink = noLink
	h.state = BlockAllocated
	return h
}

// HeaderOf recovers the header of the block whose payload starts at payload. The caller must
// already know that payload was produced by Payload.
func HeaderOf(payload unsafe.Pointer) *BlockHeader {
	return (*BlockHeader)(unsafe.Add(payload, -HeaderSize))
}

// Payload returns the first byte of the block's usable storage
func (h *BlockHeader) Payload() unsafe.Pointer {
	return unsafe.Add(unsafe.Pointer(h), HeaderSize)
}

// Capacity returns the number of usable bytes the block was carved with
func (h *BlockHeader) Capacity() int { return int(h.capacity) }

// Size returns the number of bytes currently in use by the caller. It is zero while the block is free.
func (h *BlockHeader) Size() int { return int(h.size) }

func (h *BlockHeader) State() BlockState { return h.state }

func (h *BlockHeader) IsFree() bool { return h.state == BlockFree }

func (h *BlockHeader) IsAllocated() bool { return h.state == BlockAllocated }

// SetSize changes the in-use size of an allocated block without moving it
func (h *BlockHeader) SetSize(size int) error {
	if !h.IsAllocated() {
		return errors.Errorf("attempted to resize a block in state %s", h.state)
	}
	if size < 0 || uintptr(size) > h.capacity {
		return errors.Errorf("size %d does not fit in a block of capacity %d", size, h.capacity)
	}

	h.size = uintptr(size)
	return nil
}

// Bytes returns the in-use portion of the payload
func (h *BlockHeader) Bytes() []byte {
	return unsafe.Slice((*byte)(h.Payload()), h.size)
}

// CapacityBytes returns the whole payload, including any space beyond the in-use size
func (h *BlockHeader) CapacityBytes() []byte {
	return unsafe.Slice((*byte)(h.Payload()), h.capacity)
}

func (h *BlockHeader) markFree(link uintptr) {
	h.state = BlockFree
	h.size = 0
	h.freeLink = link
}

func (h *BlockHeader) markTaken(size int) {
	h.state = BlockAllocated
	h.size = uintptr(size)
	h.freeLink = noLink
}

func (h *BlockHeader) Validate() error {
	switch h.state {
	case BlockAllocated:
		if h.size > h.capacity {
			return errors.Errorf("allocated block has size %d larger than its capacity %d", h.size, h.capacity)
		}
		if h.freeLink != noLink {
			return errors.New("allocated block still carries a free list link")
		}
	case BlockFree:
		if h.size != 0 {
			return errors.Errorf("free block has a nonzero size %d", h.size)
		}
	default:
		return errors.Errorf("block header has corrupt state %#x", uintptr(h.state))
	}

	return nil
}
