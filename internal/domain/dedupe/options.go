// Package dedupe collapses repeated submissions to one authoritative record.
package dedupe

// Option applies a configuration option to the Deduplicator.
type Option func(*Deduplicator)

// WithExpectedSize pre-sizes the key index. Values <= 0 are ignored.
func WithExpectedSize(n int) Option {
	return func(d *Deduplicator) {
		if n > 0 {
			d.expected = n
		}
	}
}
