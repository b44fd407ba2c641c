package raster

import (
	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/pkg/logger"
)

// Option applies a configuration option to the Renderer.
type Option func(*Renderer)

// WithGeometry overrides the page geometry.
func WithGeometry(g report.Geometry) Option {
	return func(r *Renderer) {
		r.geom = g
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}
