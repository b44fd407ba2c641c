// Package service wires ingestion, ranking, persistence and report rendering
// into the batch pipeline and the on-demand report service.
package service

import (
	"runtime"

	"github.com/pylab/leaderboard/internal/adapters/render/document"
	"github.com/pylab/leaderboard/internal/adapters/render/raster"
	"github.com/pylab/leaderboard/internal/domain/report"
	"github.com/pylab/leaderboard/pkg/logger"
)

// Service runs leaderboard batches and renders reports.
type Service struct {
	// Paths
	inputDir        string
	leaderboardPath string
	detailPath      string
	reportDir       string

	// Normalization
	aliases map[string]string

	// Rendering
	renderers   map[string]report.Renderer
	formats     []string
	workerCount int
	queueSize   int

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithInputDir sets the directory scanned for score sources.
func WithInputDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.inputDir = dir
		}
	}
}

// WithLeaderboardPath sets where the leaderboard artifact is written.
func WithLeaderboardPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.leaderboardPath = path
		}
	}
}

// WithDetailPath sets where the per-lecture artifact is written.
func WithDetailPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.detailPath = path
		}
	}
}

// WithReportDir sets where rendered reports go.
func WithReportDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.reportDir = dir
		}
	}
}

// WithAliases adds header aliases for normalization.
func WithAliases(aliases map[string]string) Option {
	return func(s *Service) {
		s.aliases = aliases
	}
}

// WithFormats selects which report formats are produced, in order.
func WithFormats(formats ...string) Option {
	return func(s *Service) {
		if len(formats) > 0 {
			s.formats = formats
		}
	}
}

// WithRenderer registers or replaces the renderer for its format.
func WithRenderer(r report.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderers[r.Format()] = r
		}
	}
}

// WithWorkerCount sets the number of render workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the render queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		inputDir:        "input",
		leaderboardPath: "output/leaderboard.csv",
		detailPath:      "output/results_by_lecture.csv",
		reportDir:       "output/reports",
		formats:         []string{raster.Format, document.Format},
		workerCount:     runtime.NumCPU(),
		queueSize:       256,
		logger:          logger.Nop(),
	}
	s.renderers = map[string]report.Renderer{}

	for _, opt := range opts {
		opt(s)
	}

	// Built-in backends share the service logger unless replaced.
	if _, ok := s.renderers[raster.Format]; !ok {
		s.renderers[raster.Format] = raster.New(raster.WithLogger(s.logger.Named("raster")))
	}
	if _, ok := s.renderers[document.Format]; !ok {
		s.renderers[document.Format] = document.New(document.WithLogger(s.logger.Named("document")))
	}

	return s
}

// Formats returns the configured report formats.
func (s *Service) Formats() []string {
	out := make([]string, len(s.formats))
	copy(out, s.formats)
	return out
}
