package heap

// New returns the preferred Extender for the platform: a Mmap where it is supported and an
// Arena otherwise.
func New(options Options) (Extender, error) {
	m, err := NewMmap(options)
	if err == nil {
		return m, nil
	}

	return NewArena(options)
}
