package main

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unsafe"

	"github.com/chattrj3/brkalloc/malloc"
	"github.com/chattrj3/brkalloc/memutils"
	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/dustin/go-humanize"
	"golang.org/x/exp/slog"
)

// Replayer drives an allocator from a script of named operations, one per line:
//
//	alloc   <id> <size>
//	calloc  <id> <count> <size>
//	realloc <id> <size>
//	free    <id>
//
// Sizes accept the units understood by humanize.ParseBytes, so "4KiB" and "4096" are equivalent.
// Blank lines and lines starting with # are ignored.
type Replayer struct {
	logger    *slog.Logger
	allocator *malloc.Allocator
	live      *swiss.Map[string, unsafe.Pointer]

	Operations int
	Failures   int
}

func NewReplayer(logger *slog.Logger, allocator *malloc.Allocator) *Replayer {
	return &Replayer{
		logger:    logger,
		allocator: allocator,
		live:      swiss.NewMap[string, unsafe.Pointer](64),
	}
}

// Live returns the number of ids that currently hold an allocation
func (r *Replayer) Live() int {
	return r.live.Count()
}

// Replay executes every operation in script. Allocations that fail for lack of memory are logged
// and counted, and leave their id unbound; any other failure stops the replay.
func (r *Replayer) Replay(script io.Reader) error {
	scanner := bufio.NewScanner(script)
	lineNumber := 0

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		err := r.execute(strings.Fields(line))
		if err != nil {
			return errors.Wrapf(err, "line %d", lineNumber)
		}
		r.Operations++
	}

	return scanner.Err()
}

// ReleaseAll frees every allocation still bound to an id
func (r *Replayer) ReleaseAll() error {
	var err error
	r.live.Iter(func(id string, ptr unsafe.Pointer) bool {
		err = r.allocator.Free(ptr)
		if err != nil {
			err = errors.Wrapf(err, "releasing %q", id)
			return true
		}
		return false
	})
	if err != nil {
		return err
	}

	r.live = swiss.NewMap[string, unsafe.Pointer](64)
	return nil
}

func (r *Replayer) execute(fields []string) error {
	op := fields[0]
	args := fields[1:]

	switch op {
	case "alloc":
		if len(args) != 2 {
			return errors.Newf("usage: alloc <id> <size>")
		}
		size, err := parseSize(args[1])
		if err != nil {
			return err
		}
		return r.bind(args[0], op, func() (unsafe.Pointer, error) {
			return r.allocator.Allocate(size)
		})
	case "calloc":
		if len(args) != 3 {
			return errors.Newf("usage: calloc <id> <count> <size>")
		}
		count, err := strconv.Atoi(args[1])
		if err != nil {
			return errors.Wrapf(err, "invalid count %q", args[1])
		}
		size, err := parseSize(args[2])
		if err != nil {
			return err
		}
		return r.bind(args[0], op, func() (unsafe.Pointer, error) {
			return r.allocator.ZeroAllocate(count, size)
		})
	case "realloc":
		if len(args) != 2 {
			return errors.Newf("usage: realloc <id> <size>")
		}
		size, err := parseSize(args[1])
		if err != nil {
			return err
		}
		return r.realloc(args[0], size)
	case "free":
		if len(args) != 1 {
			return errors.Newf("usage: free <id>")
		}
		ptr, ok := r.live.Get(args[0])
		if !ok {
			return errors.Newf("free of unknown id %q", args[0])
		}
		err := r.allocator.Free(ptr)
		if err != nil {
			return err
		}
		r.live.Delete(args[0])
		return nil
	default:
		return errors.Newf("unknown operation %q", op)
	}
}

func (r *Replayer) bind(id, op string, allocate func() (unsafe.Pointer, error)) error {
	if r.live.Has(id) {
		return errors.Newf("id %q is already bound to an allocation", id)
	}

	ptr, err := allocate()
	if err != nil {
		return r.handleFailure(id, op, err)
	}

	r.live.Put(id, ptr)
	return nil
}

func (r *Replayer) realloc(id string, size int) error {
	ptr, _ := r.live.Get(id)

	newPtr, err := r.allocator.Resize(ptr, size)
	if err != nil {
		return r.handleFailure(id, "realloc", err)
	}

	if newPtr == nil {
		r.live.Delete(id)
		return nil
	}

	r.live.Put(id, newPtr)
	return nil
}

func (r *Replayer) handleFailure(id, op string, err error) error {
	if !errors.Is(err, memutils.ErrOutOfMemory) {
		return err
	}

	r.Failures++
	r.logger.Warn("allocation failed", slog.String("op", op), slog.String("id", id), slog.Any("error", err))
	return nil
}

func parseSize(text string) (int, error) {
	size, err := humanize.ParseBytes(text)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid size %q", text)
	}
	if size > uint64(^uint(0)>>1) {
		return 0, errors.Newf("size %q is too large", text)
	}
	return int(size), nil
}
