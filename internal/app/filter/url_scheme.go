package filter

import (
	"context"
	"net/url"
	"slices"
	"strings"

	zlog "github.com/rs/zerolog/log"
)

// URLSchemeConfig represents the configuration for URLSchemeFilter.
type URLSchemeConfig struct {
	AllowedSchemes []string `yaml:"allowed_schemes" mapstructure:"allowed_schemes" default:"[\"http\",\"https\"]" validate:"min=1,dive,required"`
}

// URLSchemeFilter rejects video URLs that are empty, unparsable,
// or use a scheme outside the allowed list.
type URLSchemeFilter struct {
	config *URLSchemeConfig
}

// NewURLSchemeFilter creates a new URL scheme filter with default settings.
func NewURLSchemeFilter() *URLSchemeFilter {
	return &URLSchemeFilter{}
}

func (f *URLSchemeFilter) Name() string {
	return "url_scheme_filter"
}

func (f *URLSchemeFilter) Description() string {
	return "Checks that the video URL is absolute and uses an allowed scheme"
}

func (f *URLSchemeFilter) ReturnCodes() []string {
	return []string{"invalid_url"}
}

func (f *URLSchemeFilter) ValidateConfig(settings map[string]any) error {
	var config URLSchemeConfig
	if err := decodeSettings(settings, &config); err != nil {
		return err
	}
	for i, s := range config.AllowedSchemes {
		config.AllowedSchemes[i] = strings.ToLower(s)
	}
	f.config = &config
	zlog.Info().Msgf("url scheme filter config: %+v", config)
	return nil
}

func (f *URLSchemeFilter) Check(ctx context.Context, req Request) Result {
	raw := strings.TrimSpace(req.VideoURL)
	if raw == "" {
		return Reject("invalid_url")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Reject("invalid_url")
	}

	allowed := []string{"http", "https"}
	if f.config != nil {
		allowed = f.config.AllowedSchemes
	}
	if !slices.Contains(allowed, strings.ToLower(u.Scheme)) {
		return Reject("invalid_url")
	}
	return Accept()
}

func init() {
	Register("url_scheme_filter", func() Filter {
		return &URLSchemeFilter{}
	})
}
