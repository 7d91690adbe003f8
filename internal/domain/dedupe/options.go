package dedupe

// Option applies a configuration option to the deduper.
type Option func(*ringDeduper)

// WithMaxSize sets the window capacity. Values below 1 are ignored.
func WithMaxSize(size int) Option {
	return func(d *ringDeduper) {
		if size > 0 {
			d.maxSize = size
		}
	}
}
