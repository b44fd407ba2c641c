package normalize

import "github.com/pylab/leaderboard/pkg/logger"

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithAliases adds header aliases on top of the built-in ones. Keys are
// normalized the same way headers are, values must be canonical columns.
func WithAliases(aliases map[string]string) Option {
	return func(n *Normalizer) {
		for alias, canonical := range aliases {
			n.aliases[n.fold(alias)] = canonical
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}
