//go:build debug_mem_utils

package memutils

const (
	// PoisonFreedMemory indicates whether released payloads are overwritten with PoisonByte.
	// It is only true when the debug_mem_utils build tag is present.
	PoisonFreedMemory bool = true
)

// WritePoison fills a released payload with PoisonByte so that writes through a dangling
// pointer can be detected when the block is reused.
// This method no-ops unless the debug_mem_utils build tag is present.
func WritePoison(payload []byte) {
	for i := range payload {
		payload[i] = PoisonByte
	}
}

// ValidatePoison verifies that the marker written by WritePoison is still present.
// It returns true if the value is still present and false otherwise.
// This method no-ops unless the debug_mem_utils build tag is present.
func ValidatePoison(payload []byte) bool {
	for _, b := range payload {
		if b != PoisonByte {
			return false
		}
	}

	return true
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_mem_utils build tag is present
func DebugValidate(validatable Validatable) {
	err := validatable.Validate()
	if err != nil {
		panic(err)
	}
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_mem_utils build tag is present.
func DebugCheckPow2[T Number](value T, name string) {
	err := CheckPow2[T](value, name)
	if err != nil {
		panic(err)
	}
}
