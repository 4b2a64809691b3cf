package filter

import (
	"context"
	"strings"
	"unicode/utf8"

	zlog "github.com/rs/zerolog/log"
)

// CaptionLengthConfig represents the configuration for CaptionLengthFilter.
type CaptionLengthConfig struct {
	MaxRunes int `yaml:"max_runes" mapstructure:"max_runes" default:"200" validate:"gte=1"`
}

// CaptionLengthFilter checks that the caption is present and not too long.
type CaptionLengthFilter struct {
	config *CaptionLengthConfig
}

// NewCaptionLengthFilter creates a new caption length filter.
func NewCaptionLengthFilter() *CaptionLengthFilter {
	return &CaptionLengthFilter{}
}

func (f *CaptionLengthFilter) Name() string {
	return "caption_length_filter"
}

func (f *CaptionLengthFilter) Description() string {
	return "Checks that the caption is present and within the allowed length"
}

func (f *CaptionLengthFilter) ReturnCodes() []string {
	return []string{"caption_required", "caption_too_long"}
}

func (f *CaptionLengthFilter) ValidateConfig(settings map[string]any) error {
	var config CaptionLengthConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	f.config = &config
	zlog.Info().Msgf("caption length filter config: %+v", config)
	return nil
}

func (f *CaptionLengthFilter) Check(ctx context.Context, req Request) Result {
	caption := strings.TrimSpace(req.Caption)
	if caption == "" {
		return Reject("caption_required")
	}

	// Without config there is no length limit
	if f.config == nil {
		return Accept()
	}
	if utf8.RuneCountInString(caption) > f.config.MaxRunes {
		return Reject("caption_too_long")
	}
	return Accept()
}

func init() {
	Register("caption_length_filter", func() Filter {
		return &CaptionLengthFilter{}
	})
}
