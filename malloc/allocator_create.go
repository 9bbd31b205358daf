package malloc

import (
	"strings"

	"github.com/chattrj3/brkalloc/malloc/internal/utils"
	"github.com/chattrj3/brkalloc/memutils/heap"
	"golang.org/x/exp/slog"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

const (
	// AllocatorCreateInternallySynchronized guards every operation of the allocator with a mutex,
	// making it safe to share between goroutines. Without it the consumer must guarantee that the
	// allocator is used from only one goroutine at a time.
	AllocatorCreateInternallySynchronized CreateFlags = 1 << iota
	// AllocatorCreateOwnsExtender causes Destroy to close the heap extender the allocator was
	// created with. Allocators that build their own extender always own it.
	AllocatorCreateOwnsExtender
)

var createFlagsMapping = map[CreateFlags]string{
	AllocatorCreateInternallySynchronized: "AllocatorCreateInternallySynchronized",
	AllocatorCreateOwnsExtender:           "AllocatorCreateOwnsExtender",
}

func (f CreateFlags) String() string {
	if f == 0 {
		return "None"
	}

	var names []string
	for bit := CreateFlags(1); bit != 0 && bit <= f; bit <<= 1 {
		if f&bit == 0 {
			continue
		}
		name, ok := createFlagsMapping[bit]
		if !ok {
			name = "Unknown"
		}
		names = append(names, name)
	}

	return strings.Join(names, "|")
}

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags

	// HeapOptions is used to build a heap extender when none is passed to New. It is
	// ignored otherwise.
	HeapOptions heap.Options

	// MemoryCallbackOptions is an optional set of callbacks that will be executed when the
	// allocator grows its heap.
	MemoryCallbackOptions *MemoryCallbackOptions
}

// New creates a new Allocator
//
// logger - Receives diagnostic output. If nil, slog.Default() is used. In builds with the
// debug_mem_trace tag, trace lines go to stderr whenever this logger drops Debug records.
//
// extender - The heap that blocks are carved from. The allocator assumes that it is the only
// consumer of the extender. If nil, heap.New is called with options.HeapOptions and the
// resulting extender is owned by the allocator.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, extender heap.Extender, options CreateOptions) (*Allocator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	flags := options.Flags
	if extender == nil {
		var err error
		extender, err = heap.New(options.HeapOptions)
		if err != nil {
			return nil, err
		}
		flags |= AllocatorCreateOwnsExtender
	}

	allocator := &Allocator{
		mutex:       utils.OptionalMutex{UseMutex: flags&AllocatorCreateInternallySynchronized != 0},
		logger:      logger,
		extender:    extender,
		createFlags: flags,
	}
	allocator.callbacks = &memoryCallbacks{
		Callbacks: options.MemoryCallbackOptions,
		Allocator: allocator,
	}

	logger.Debug("Allocator::New", slog.String("Flags", flags.String()))

	return allocator, nil
}
