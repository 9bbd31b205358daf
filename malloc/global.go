package malloc

import (
	"sync"
	"unsafe"

	"github.com/chattrj3/brkalloc/memutils"
	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

var (
	defaultOnce      sync.Once
	defaultAllocator *Allocator
	defaultErr       error
)

// Default returns the process-wide allocator used by Malloc, Calloc, Realloc and Free. It is
// created on first use with a platform default heap, is internally synchronized and is never
// destroyed.
func Default() (*Allocator, error) {
	defaultOnce.Do(func() {
		defaultAllocator, defaultErr = New(nil, nil, CreateOptions{
			Flags: AllocatorCreateInternallySynchronized,
		})
	})

	return defaultAllocator, defaultErr
}

// Malloc allocates size bytes from the process-wide allocator, returning nil on failure
func Malloc(size int) unsafe.Pointer {
	a, err := Default()
	if err != nil {
		return nil
	}

	ptr, err := a.Allocate(size)
	if err != nil {
		a.reportFailure("Malloc", err)
		return nil
	}
	return ptr
}

// Calloc allocates count*size zeroed bytes from the process-wide allocator, returning nil on failure
func Calloc(count, size int) unsafe.Pointer {
	a, err := Default()
	if err != nil {
		return nil
	}

	ptr, err := a.ZeroAllocate(count, size)
	if err != nil {
		a.reportFailure("Calloc", err)
		return nil
	}
	return ptr
}

// Realloc resizes ptr within the process-wide allocator. It returns nil when size is zero and on
// failure; in the latter case ptr is left untouched.
func Realloc(ptr unsafe.Pointer, size int) unsafe.Pointer {
	a, err := Default()
	if err != nil {
		return nil
	}

	newPtr, err := a.Resize(ptr, size)
	if err != nil {
		a.reportFailure("Realloc", err)
		return nil
	}
	return newPtr
}

// Free releases ptr back to the process-wide allocator. Freeing nil does nothing.
func Free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}

	a, err := Default()
	if err != nil {
		return
	}

	err = a.Free(ptr)
	if err != nil {
		a.reportFailure("Free", err)
	}
}

// reportFailure logs errors that the nil-returning entry points cannot pass to their caller.
// Running out of memory is an expected outcome for callers that check for nil, while anything
// else is a programming error in the caller.
func (a *Allocator) reportFailure(operation string, err error) {
	if errors.Is(err, memutils.ErrOutOfMemory) {
		a.logger.Debug(operation+" failed", slog.Any("error", err))
		return
	}

	a.logger.Error(operation+" was passed invalid arguments", slog.Any("error", err))
}
