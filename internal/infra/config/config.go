// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Viewer   ViewerConfig            `yaml:"viewer"`
	Stories  StoriesConfig           `yaml:"stories"`
	Creation CreationConfig          `yaml:"creation"`
	Filters  map[string]FilterConfig `yaml:"filters"`
	Messages MessagesConfig          `yaml:"messages"`
	Metrics  MetricsConfig           `yaml:"metrics"`
}

// ViewerConfig represents story viewer configuration.
type ViewerConfig struct {
	TickIntervalMs int `yaml:"tick_interval_ms" default:"50" validate:"gte=10,lte=1000"`
}

// StoriesConfig represents the story source.
type StoriesConfig struct {
	File string `yaml:"file"` // empty = embedded seed
}

// CreationConfig represents story creation settings.
type CreationConfig struct {
	AuthorHandle string   `yaml:"author_handle" default:"you" validate:"required"`
	AvatarURL    string   `yaml:"avatar_url" default:"https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=100&h=100&fit=crop" validate:"omitempty,url"`
	DurationSec  float64  `yaml:"duration_sec" default:"15" validate:"gt=0"`
	SampleVideos []string `yaml:"sample_videos" default:"[\"https://storage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4\",\"https://storage.googleapis.com/gtv-videos-bucket/sample/ElephantsDream.mp4\",\"https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerBlazes.mp4\",\"https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerEscapes.mp4\",\"https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerFun.mp4\",\"https://storage.googleapis.com/gtv-videos-bucket/sample/ForBiggerJoyrides.mp4\"]" validate:"dive,url"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// MessagesConfig represents user-facing messages.
type MessagesConfig struct {
	Success         string `yaml:"success" default:"Story shared"`
	DefaultError    string `yaml:"default_error" default:"Could not share the story"`
	InvalidURL      string `yaml:"invalid_url" default:"Please enter a valid video URL"`
	CaptionRequired string `yaml:"caption_required" default:"Please add a caption"`
	CaptionTooLong  string `yaml:"caption_too_long" default:"Caption is too long"`
}

// MetricsConfig represents the Prometheus endpoint configuration.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty = disabled
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Both creation filters run unless the file lists filters itself
	if cfg.Filters == nil {
		cfg.Filters = map[string]FilterConfig{
			"url_scheme_filter":     {Enabled: true},
			"caption_length_filter": {Enabled: true},
		}
	}

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() (*Config, error) {
	return Parse(nil)
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("STORYBOX_STORIES_FILE"); v != "" {
		c.Stories.File = v
	}
	if v := os.Getenv("STORYBOX_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
}

// GetMessage returns the message for the given code.
func (c *Config) GetMessage(code string) string {
	switch code {
	case "success":
		return c.Messages.Success
	case "invalid_url":
		return c.Messages.InvalidURL
	case "caption_required":
		return c.Messages.CaptionRequired
	case "caption_too_long":
		return c.Messages.CaptionTooLong
	default:
		return c.Messages.DefaultError
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// TickInterval returns the progress clock period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Viewer.TickIntervalMs) * time.Millisecond
}

// CreationDuration returns the duration of a created story.
func (c *Config) CreationDuration() time.Duration {
	return time.Duration(c.Creation.DurationSec * float64(time.Second))
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// GetFilterSettings returns the settings for a filter.
func (c *Config) GetFilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
