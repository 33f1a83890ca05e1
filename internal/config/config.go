package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Naver            NaverConfig       `yaml:"naver" mapstructure:"naver"`
	API              APIConfig         `yaml:"api" mapstructure:"api"`
	Search           SearchConfig      `yaml:"search" mapstructure:"search"`
	POIs             POIConfig         `yaml:"pois" mapstructure:"pois"`
	Region           RegionConfig      `yaml:"region" mapstructure:"region"`
	IndustrySynonyms []IndustrySynonym `yaml:"industry_synonyms" mapstructure:"industry_synonyms"`
	Keywords         KeywordsConfig    `yaml:"keywords" mapstructure:"keywords"`
	Filters          FiltersConfig     `yaml:"filters" mapstructure:"filters"`
	Output           OutputConfig      `yaml:"output" mapstructure:"output"`
	Server           ServerConfig      `yaml:"server" mapstructure:"server"`
	Log              LogConfig         `yaml:"log" mapstructure:"log"`
}

// NaverConfig holds credentials and base URLs for the Maps and Local search APIs.
type NaverConfig struct {
	MapsClientID      string `yaml:"maps_client_id" mapstructure:"maps_client_id"`
	MapsClientSecret  string `yaml:"maps_client_secret" mapstructure:"maps_client_secret"`
	MapsBaseURL       string `yaml:"maps_base_url" mapstructure:"maps_base_url"`
	LocalClientID     string `yaml:"local_client_id" mapstructure:"local_client_id"`
	LocalClientSecret string `yaml:"local_client_secret" mapstructure:"local_client_secret"`
	LocalBaseURL      string `yaml:"local_base_url" mapstructure:"local_base_url"`
}

// APIConfig controls provider call pacing and retries.
type APIConfig struct {
	RequestDelaySec float64 `yaml:"request_delay_sec" mapstructure:"request_delay_sec"`
	RateLimitRPS    float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts     int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	// BreakerThreshold consecutive failures stop calls to a provider for
	// BreakerCooldownSecs. Zero disables the breaker.
	BreakerThreshold    int `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSecs int `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// SearchConfig configures competitive radius selection.
type SearchConfig struct {
	RadiusStartKM       float64 `yaml:"radius_start_km" mapstructure:"radius_start_km"`
	RadiusMaxKM         float64 `yaml:"radius_max_km" mapstructure:"radius_max_km"`
	RadiusStepKM        float64 `yaml:"radius_step_km" mapstructure:"radius_step_km"`
	CompetitionMinCount int     `yaml:"competition_min_count" mapstructure:"competition_min_count"`
	UseLocalAPI         bool    `yaml:"use_local_api" mapstructure:"use_local_api"`
	LocalRegionTerms    int     `yaml:"local_region_terms" mapstructure:"local_region_terms"`
	Concurrency         int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// POIConfig configures point-of-interest lookups.
type POIConfig struct {
	Enabled             bool                 `yaml:"enabled" mapstructure:"enabled"`
	UseLocalAPI         bool                 `yaml:"use_local_api" mapstructure:"use_local_api"`
	LocalDisplay        int                  `yaml:"local_display" mapstructure:"local_display"`
	SubwayQueries       []string             `yaml:"subway_queries" mapstructure:"subway_queries"`
	LandmarkQueries     []string             `yaml:"landmark_queries" mapstructure:"landmark_queries"`
	AllowedCategories   map[string][]string  `yaml:"allowed_categories" mapstructure:"allowed_categories"`
	AllowedNameKeywords map[string][]string  `yaml:"allowed_name_keywords" mapstructure:"allowed_name_keywords"`
	FilterSets          map[string]FilterSet `yaml:"filter_sets" mapstructure:"filter_sets"`
}

// FilterSet is a named pair of POI allow-lists keyed by category ("subway", "landmark").
type FilterSet struct {
	AllowedCategories   map[string][]string `yaml:"allowed_categories" mapstructure:"allowed_categories"`
	AllowedNameKeywords map[string][]string `yaml:"allowed_name_keywords" mapstructure:"allowed_name_keywords"`
}

// RegionConfig configures region term post-processing.
type RegionConfig struct {
	IncludePOI      bool     `yaml:"include_poi" mapstructure:"include_poi"`
	CombineTerms    bool     `yaml:"combine_terms" mapstructure:"combine_terms"`
	ShortenSuffixes []string `yaml:"shorten_suffixes" mapstructure:"shorten_suffixes"`
}

// IndustrySynonym maps service keywords to an industry label.
type IndustrySynonym struct {
	Industry string   `yaml:"industry" mapstructure:"industry"`
	Keywords []string `yaml:"keywords" mapstructure:"keywords"`
}

// SuffixRule rewrites a term ending in Suffix into base+each of AddSuffixes.
type SuffixRule struct {
	Suffix      string   `yaml:"suffix" mapstructure:"suffix"`
	AddSuffixes []string `yaml:"add_suffixes" mapstructure:"add_suffixes"`
}

// ExpansionRule appends IncludeTerms when any of TriggerTerms is present.
type ExpansionRule struct {
	TriggerTerms []string `yaml:"trigger_terms" mapstructure:"trigger_terms"`
	IncludeTerms []string `yaml:"include_terms" mapstructure:"include_terms"`
}

// KeywordsConfig configures term extraction and keyword synthesis.
type KeywordsConfig struct {
	Patterns           [][]string      `yaml:"patterns" mapstructure:"patterns"`
	Joiner             string          `yaml:"joiner" mapstructure:"joiner"`
	ModifiersTiers     [][]string      `yaml:"modifiers_tiers" mapstructure:"modifiers_tiers"`
	ServiceTerms       []string        `yaml:"service_terms" mapstructure:"service_terms"`
	ServiceSuffixRules []SuffixRule    `yaml:"service_suffix_rules" mapstructure:"service_suffix_rules"`
	ServiceExpansions  []ExpansionRule `yaml:"service_expansions" mapstructure:"service_expansions"`
	NameBaseTerms      []string        `yaml:"name_base_terms" mapstructure:"name_base_terms"`
	NameSuffixTerms    []string        `yaml:"name_suffix_terms" mapstructure:"name_suffix_terms"`
	NameIncludeTerms   []string        `yaml:"name_include_terms" mapstructure:"name_include_terms"`
	NameExpansions     []ExpansionRule `yaml:"name_expansions" mapstructure:"name_expansions"`
}

// ExcludePair rejects keywords containing both an industry term and a modifier.
type ExcludePair struct {
	IndustryTerms []string `yaml:"industry_terms" mapstructure:"industry_terms"`
	Modifiers     []string `yaml:"modifiers" mapstructure:"modifiers"`
}

// FiltersConfig configures the keyword exclusion policy.
type FiltersConfig struct {
	ExcludeRegex []string      `yaml:"exclude_regex" mapstructure:"exclude_regex"`
	ExcludePairs []ExcludePair `yaml:"exclude_pairs" mapstructure:"exclude_pairs"`
}

// OutputConfig configures allocation and export files.
type OutputConfig struct {
	KeywordsPerGroup  int        `yaml:"keywords_per_group" mapstructure:"keywords_per_group"`
	AllowPartialGroup bool       `yaml:"allow_partial_group" mapstructure:"allow_partial_group"`
	Template          string     `yaml:"template" mapstructure:"template"`
	Format            string     `yaml:"format" mapstructure:"format"`
	Encoding          string     `yaml:"encoding" mapstructure:"encoding"`
	HeaderRows        [][]string `yaml:"header_rows" mapstructure:"header_rows"`
	Columns           []string   `yaml:"columns" mapstructure:"columns"`
	DefaultPCURL      string     `yaml:"default_pc_url" mapstructure:"default_pc_url"`
	DefaultMobileURL  string     `yaml:"default_mobile_url" mapstructure:"default_mobile_url"`
	DefaultBid        string     `yaml:"default_bid" mapstructure:"default_bid"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	SessionTTLMins int      `yaml:"session_ttl_mins" mapstructure:"session_ttl_mins"`
	PreviewLimit   int      `yaml:"preview_limit" mapstructure:"preview_limit"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from ./config.yaml (optional) and environment.
func Load() (*Config, error) {
	return load("")
}

// LoadFile reads configuration from an explicit file path and environment.
// The file must exist.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("KEYWORD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional unless a path was given)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Credentials are only read from the environment or file; bind them so
	// AutomaticEnv picks them up during Unmarshal.
	v.SetDefault("naver.maps_client_id", "")
	v.SetDefault("naver.maps_client_secret", "")
	v.SetDefault("naver.local_client_id", "")
	v.SetDefault("naver.local_client_secret", "")
	v.SetDefault("naver.maps_base_url", "https://naveropenapi.apigw.ntruss.com")
	v.SetDefault("naver.local_base_url", "https://openapi.naver.com")

	v.SetDefault("api.request_delay_sec", 0.2)
	v.SetDefault("api.rate_limit_rps", 0)
	v.SetDefault("api.timeout_secs", 15)
	v.SetDefault("api.max_attempts", 2)
	v.SetDefault("api.breaker_threshold", 5)
	v.SetDefault("api.breaker_cooldown_secs", 30)

	v.SetDefault("search.radius_start_km", 1.0)
	v.SetDefault("search.radius_max_km", 5.0)
	v.SetDefault("search.radius_step_km", 1.0)
	v.SetDefault("search.competition_min_count", 30)
	v.SetDefault("search.use_local_api", false)
	v.SetDefault("search.local_region_terms", 2)
	v.SetDefault("search.concurrency", 1)

	v.SetDefault("pois.enabled", true)
	v.SetDefault("pois.use_local_api", false)
	v.SetDefault("pois.local_display", 10)
	v.SetDefault("pois.subway_queries", []string{"지하철역"})
	v.SetDefault("pois.landmark_queries", []string{"랜드마크", "공원"})

	v.SetDefault("region.include_poi", false)
	v.SetDefault("region.combine_terms", false)
	v.SetDefault("region.shorten_suffixes", []string{"특별시", "광역시", "시", "구", "군", "동", "읍", "면"})

	v.SetDefault("keywords.patterns", [][]string{
		{"region", "industry"},
		{"region", "service"},
		{"poi", "service"},
		{"region", "industry", "modifier"},
		{"region", "service", "modifier"},
		{"poi", "service", "modifier"},
	})
	v.SetDefault("keywords.joiner", "")
	v.SetDefault("keywords.modifiers_tiers", [][]string{
		{"추천", "잘하는곳"},
		{"가격", "후기", "예약"},
		{"근처", "유명한곳", "가까운곳"},
	})

	v.SetDefault("output.keywords_per_group", 1000)
	v.SetDefault("output.allow_partial_group", false)
	v.SetDefault("output.template", TemplateMinimal)
	v.SetDefault("output.format", FormatCSV)
	v.SetDefault("output.encoding", EncodingUTF8BOM)
	v.SetDefault("output.columns", []string{"ad_group_id", "keyword"})

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.session_ttl_mins", 30)
	v.SetDefault("server.preview_limit", 100)
	v.SetDefault("server.allowed_origins", []string{"*"})
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
