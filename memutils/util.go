package memutils

import (
	"github.com/JohnCGriffin/overflow"
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint
}

func CheckPow2[T Number](number T, name string) error {
	if number == 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

func AlignUp(value int, alignment uint) int {
	return (value + int(alignment) - 1) & int(^(alignment - 1))
}

func AlignDown(value int, alignment uint) int {
	return value & int(^(alignment - 1))
}

// CheckedAlignUp behaves like AlignUp, but reports false instead of wrapping around when
// value is close enough to math.MaxInt that the aligned result cannot be represented.
func CheckedAlignUp(value int, alignment uint) (int, bool) {
	padded, ok := overflow.Add(value, int(alignment)-1)
	if !ok {
		return 0, false
	}
	return padded & int(^(alignment - 1)), true
}

// ArraySize returns count*size, failing with ErrOutOfMemory when either operand is negative
// or the product overflows an int.
func ArraySize(count, size int) (int, error) {
	if count < 0 || size < 0 {
		return 0, cerrors.Wrapf(ErrInvalidSize, "array of %d elements of %d bytes", count, size)
	}
	total, ok := overflow.Mul(count, size)
	if !ok {
		return 0, cerrors.Wrapf(ErrOutOfMemory, "array of %d elements of %d bytes overflows", count, size)
	}
	return total, nil
}
