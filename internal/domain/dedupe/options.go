package dedupe

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithKeyFunc replaces the default name normaliser. A nil f is ignored.
func WithKeyFunc(f KeyFunc) Option {
	return func(d *inMemoryDeduper) {
		if f != nil {
			d.key = f
		}
	}
}

// WithCapacity pre-sizes the seen map.
func WithCapacity(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.capacity = n
		}
	}
}
