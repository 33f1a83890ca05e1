package config

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// Output templates.
const (
	TemplateMinimal  = "minimal"
	TemplateNaverCSV = "naver_csv"
)

// Output file formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Output encodings.
const (
	EncodingUTF8BOM = "utf-8-sig"
	EncodingUTF8    = "utf-8"
	EncodingCP949   = "cp949"
)

// ErrMissingCredentials marks a run that cannot start because provider
// credentials are not configured.
var ErrMissingCredentials = eris.New("config: missing credentials")

// patternColumns is the column vocabulary accepted in keyword patterns.
var patternColumns = []string{"region", "industry", "service", "modifier", "poi"}

// Validate checks the configuration for errors that must abort a run before
// any provider call is made.
func (c *Config) Validate() error {
	var problems []string

	if c.Output.KeywordsPerGroup <= 0 {
		problems = append(problems, "output.keywords_per_group must be positive")
	}
	if c.Search.RadiusStepKM <= 0 {
		problems = append(problems, "search.radius_step_km must be positive")
	}
	if c.Search.RadiusStartKM > c.Search.RadiusMaxKM {
		problems = append(problems, "search.radius_start_km exceeds search.radius_max_km")
	}
	for i, pattern := range c.Keywords.Patterns {
		if len(pattern) == 0 {
			problems = append(problems, fmt.Sprintf("keywords.patterns[%d] is empty", i))
			continue
		}
		for _, col := range pattern {
			if !slices.Contains(patternColumns, col) {
				problems = append(problems, fmt.Sprintf("keywords.patterns[%d]: unknown column %q", i, col))
			}
		}
	}
	if c.Search.Concurrency > 1 && c.API.RateLimitRPS <= 0 && c.API.RequestDelaySec <= 0 {
		problems = append(problems, "search.concurrency > 1 requires api.rate_limit_rps or api.request_delay_sec")
	}
	for _, expr := range c.Filters.ExcludeRegex {
		if _, err := regexp.Compile(expr); err != nil {
			problems = append(problems, fmt.Sprintf("filters.exclude_regex: invalid pattern %q", expr))
		}
	}
	switch c.Output.Template {
	case "", TemplateMinimal, TemplateNaverCSV:
	default:
		problems = append(problems, fmt.Sprintf("output.template: unknown template %q", c.Output.Template))
	}
	switch c.Output.Format {
	case "", FormatCSV, FormatXLSX:
	default:
		problems = append(problems, fmt.Sprintf("output.format: unknown format %q", c.Output.Format))
	}
	switch strings.ToLower(c.Output.Encoding) {
	case "", EncodingUTF8BOM, EncodingUTF8, EncodingCP949:
	default:
		problems = append(problems, fmt.Sprintf("output.encoding: unknown encoding %q", c.Output.Encoding))
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}

// NeedsLocalAPI reports whether any stage is configured to use the Local search API.
func (c *Config) NeedsLocalAPI() bool {
	return c.Search.UseLocalAPI || c.POIs.UseLocalAPI
}

// RequireMapsCredentials returns an error naming the missing Maps API env vars.
func (c *Config) RequireMapsCredentials() error {
	if c.Naver.MapsClientID == "" || c.Naver.MapsClientSecret == "" {
		return eris.Wrap(ErrMissingCredentials, "set KEYWORD_NAVER_MAPS_CLIENT_ID and KEYWORD_NAVER_MAPS_CLIENT_SECRET")
	}
	return nil
}

// RequireLocalCredentials returns an error naming the missing Local API env
// vars when the configuration relies on the Local search API.
func (c *Config) RequireLocalCredentials() error {
	if !c.NeedsLocalAPI() {
		return nil
	}
	if c.Naver.LocalClientID == "" || c.Naver.LocalClientSecret == "" {
		return eris.Wrap(ErrMissingCredentials, "set KEYWORD_NAVER_LOCAL_CLIENT_ID and KEYWORD_NAVER_LOCAL_CLIENT_SECRET")
	}
	return nil
}

// HasLocalCredentials reports whether Local API credentials are configured.
func (c *Config) HasLocalCredentials() bool {
	return c.Naver.LocalClientID != "" && c.Naver.LocalClientSecret != ""
}

// WithPOIFilterSet returns a copy of the config whose POI allow-lists are
// replaced by the named filter set. Unknown or empty names return an
// unchanged copy.
func (c *Config) WithPOIFilterSet(name string) *Config {
	out := *c
	if name == "" {
		return &out
	}
	set, ok := c.POIs.FilterSets[strings.ToLower(name)]
	if !ok {
		return &out
	}
	out.POIs.AllowedCategories = set.AllowedCategories
	out.POIs.AllowedNameKeywords = set.AllowedNameKeywords
	return &out
}

// WithExtraServiceTerms returns a copy of the config with terms appended to
// keywords.service_terms, de-duplicated in order.
func (c *Config) WithExtraServiceTerms(terms []string) *Config {
	out := *c
	if len(terms) == 0 {
		return &out
	}
	merged := make([]string, 0, len(c.Keywords.ServiceTerms)+len(terms))
	seen := make(map[string]struct{}, cap(merged))
	for _, t := range append(slices.Clone(c.Keywords.ServiceTerms), terms...) {
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		merged = append(merged, t)
	}
	out.Keywords.ServiceTerms = merged
	return &out
}

// FilterSetNames returns the configured POI filter set names, sorted.
func (c *Config) FilterSetNames() []string {
	names := make([]string, 0, len(c.POIs.FilterSets))
	for name := range c.POIs.FilterSets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
