package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// ErrOutOfMemory is returned when the heap cannot be extended far enough to satisfy a request,
// including requests whose size cannot be represented at all. Callers should match it with errors.Is,
// since it is usually wrapped with the size that could not be satisfied.
var ErrOutOfMemory error = errors.New("out of memory")

// ErrInvalidPointer is returned when a pointer passed to a release or resize operation does not
// lie inside the heap or does not point at the payload of a live block
var ErrInvalidPointer error = errors.New("pointer was not obtained from this allocator")

// ErrDoubleFree is returned when a pointer is released while its block is already free
var ErrDoubleFree error = errors.New("block has already been released")

// ErrInvalidSize is returned when a negative size is requested
var ErrInvalidSize error = errors.New("size must not be negative")
