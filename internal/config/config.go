// Package config defines the batch job configuration and its loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers a YAML file and env vars on top.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// InputDir holds the per-lecture score exports (.csv, .xlsx).
	InputDir string `koanf:"input_dir" validate:"required"`

	// OutputDir receives the leaderboard and detail artifacts.
	OutputDir string `koanf:"output_dir" validate:"required"`

	// ReportDir receives rendered student reports. Defaults to OutputDir/reports.
	ReportDir string `koanf:"report_dir"`

	// LeaderboardFile and DetailFile are file names inside OutputDir.
	LeaderboardFile string `koanf:"leaderboard_file" validate:"required,excludes=/"`
	DetailFile      string `koanf:"detail_file" validate:"required,excludes=/"`

	// MetricsFile is where the Prometheus textfile is written after a run.
	// Empty disables the textfile.
	MetricsFile string `koanf:"metrics_file"`

	// ScoreAliases maps extra normalized header spellings to canonical columns
	// (username, lecture, score).
	ScoreAliases map[string]string `koanf:"score_aliases"`

	// RenderWorkers sets the number of concurrent report renderers.
	RenderWorkers int `koanf:"render_workers" validate:"min=1"`

	// RenderQueueSize bounds the render job queue.
	RenderQueueSize int `koanf:"render_queue_size" validate:"min=1"`

	// Formats is a comma separated list of report formats: png, pdf.
	Formats string `koanf:"formats" validate:"required"`

	// BarBlocks is the terminal bar width in blocks.
	BarBlocks int `koanf:"bar_blocks" validate:"min=1,max=200"`

	// TopN is the size of the dashboard's top chart.
	TopN int `koanf:"top_n" validate:"min=1"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		InputDir:        "input",
		OutputDir:       "output",
		LeaderboardFile: "leaderboard.csv",
		DetailFile:      "results_by_lecture.csv",
		MetricsFile:     "",
		ScoreAliases:    map[string]string{},
		RenderWorkers:   runtime.NumCPU(),
		RenderQueueSize: 1024,
		Formats:         "png,pdf",
		BarBlocks:       34,
		TopN:            10,
	}
}

// LeaderboardPath returns the full path of the leaderboard artifact.
func (c *Config) LeaderboardPath() string {
	return filepath.Join(c.OutputDir, c.LeaderboardFile)
}

// DetailPath returns the full path of the per-lecture detail artifact.
func (c *Config) DetailPath() string {
	return filepath.Join(c.OutputDir, c.DetailFile)
}

// ReportPath returns the directory for rendered reports.
func (c *Config) ReportPath() string {
	if c.ReportDir != "" {
		return c.ReportDir
	}
	return filepath.Join(c.OutputDir, "reports")
}

// FormatList splits Formats into lower-case, de-duplicated entries.
func (c *Config) FormatList() []string {
	seen := make(map[string]bool)
	var out []string
	for _, f := range strings.Split(c.Formats, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
