//go:build !linux

package heap

import (
	"github.com/cockroachdb/errors"
)

// NewMmap is only available on linux. Elsewhere it returns an error and callers should fall
// back to NewArena.
func NewMmap(options Options) (Extender, error) {
	return nil, errors.New("mmap-backed heaps are only supported on linux")
}
