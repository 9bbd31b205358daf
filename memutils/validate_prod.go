//go:build !debug_mem_utils

package memutils

const (
	// PoisonFreedMemory indicates whether released payloads are overwritten with PoisonByte.
	// It is only true when the debug_mem_utils build tag is present.
	PoisonFreedMemory bool = false
)

// WritePoison fills a released payload with PoisonByte so that writes through a dangling
// pointer can be detected when the block is reused.
// This method no-ops unless the debug_mem_utils build tag is present.
func WritePoison(payload []byte) {
}

// ValidatePoison verifies that the marker written by WritePoison is still present.
// It returns true if the value is still present and false otherwise.
// This method no-ops unless the debug_mem_utils build tag is present.
func ValidatePoison(payload []byte) bool {
	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2[T Number](value T, name string) {

}
