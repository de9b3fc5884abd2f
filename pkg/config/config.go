package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Mode selects the degradation policy for provider failures
type Mode string

const (
	// ModeStrict surfaces every terminal provider failure
	ModeStrict Mode = "strict"
	// ModeDevelopment substitutes registered mock generators for terminal failures
	ModeDevelopment Mode = "development"
)

// Stage names used for per-stage settings
var StageNames = []string{"research", "analysis", "valuation", "enhancement", "optimization", "render", "export"}

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Storage   StorageConfig
	Workflow  WorkflowConfig
	Retry     RetryConfig
	Providers ProvidersConfig
	Server    ServerConfig
	Redis     RedisConfig
	Database  DatabaseConfig
	Typesense TypesenseConfig
	OTEL      OTELConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Name       string
	Env        string
	Mode       Mode
	LogLevel   string
	ConfigFile string
}

// StorageConfig selects the artifact store backend
type StorageConfig struct {
	RootDir   string
	Bucket    string
	Prefix    string
	CacheSize int
}

// WorkflowConfig holds engine settings
type WorkflowConfig struct {
	BatchSize         int
	ContinueOnFailure bool
	StageTimeouts     map[string]time.Duration
	StageTTLs         map[string]time.Duration
	SectionMinWords   int
	SectionMaxWords   int
	DensityMin        float64
	DensityMax        float64
	ExportDir         string
	LockTTL           time.Duration
	// Draft marks rendered articles as drafts in their front matter
	Draft bool
}

// RetryConfig holds the per-call provider budget
type RetryConfig struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	Multiplier      float64
	MaxDelay        time.Duration
	Jitter          float64
	BreakerFailures int
	BreakerCooldown time.Duration
}

// ProviderConfig holds credentials and endpoint settings for one provider
type ProviderConfig struct {
	APIKey   string
	Login    string
	Password string
	BaseURL  string
	Model    string
	RPM      int
	Timeout  time.Duration
}

// HasCredentials reports whether enough credential material is present to call the provider
func (p ProviderConfig) HasCredentials() bool {
	return p.APIKey != "" || (p.Login != "" && p.Password != "")
}

// ProvidersConfig holds all provider settings
type ProvidersConfig struct {
	Keywords  ProviderConfig
	SERP      ProviderConfig
	PAA       ProviderConfig
	Anthropic ProviderConfig
	OpenAI    ProviderConfig
	Image     ProviderConfig
	Valuation ProviderConfig
	CMS       ProviderConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AllowedOrigins feeds the CORS middleware; "*" allows any origin
	AllowedOrigins []string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	Channel  string
}

// DatabaseConfig holds the run-history database configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL        string
	APIKey     string
	Collection string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	Enabled        bool
	Exporter       string
	Endpoint       string
	ServiceName    string
	ServiceVersion string
}

var defaultStageTimeouts = map[string]time.Duration{
	"research":     3 * time.Minute,
	"analysis":     2 * time.Minute,
	"valuation":    45 * time.Second,
	"enhancement":  5 * time.Minute,
	"optimization": 3 * time.Minute,
	"render":       30 * time.Second,
	"export":       time.Minute,
}

// Defaults returns the default settings keyed the way the config file and environment name them.
func Defaults() map[string]interface{} {
	d := map[string]interface{}{
		"app_name":             "articleforge",
		"app_env":              "",
		"mode":                 "",
		"log_level":            "info",
		"root_dir":             "./content-store",
		"output_bucket":        "",
		"output_prefix":        "",
		"artifact_cache_size":  512,
		"batch_size":           20,
		"continue_on_failure":  true,
		"section_min_words":    120,
		"section_max_words":    400,
		"density_min":          0.01,
		"density_max":          0.03,
		"export_dir":           "",
		"draft":                false,
		"lock_ttl":             "15m",
		"retry_max_attempts":   3,
		"retry_base_delay":     "1s",
		"retry_multiplier":     2.0,
		"retry_max_delay":      "30s",
		"retry_jitter":         0.2,
		"breaker_failures":     5,
		"breaker_cooldown":     "30s",
		"keywords_base_url":    "https://api.dataforseo.com",
		"serp_base_url":        "https://serpapi.com",
		"paa_base_url":         "https://serpapi.com",
		"anthropic_base_url":   "https://api.anthropic.com",
		"anthropic_model":      "claude-sonnet-4-5",
		"openai_base_url":      "https://api.openai.com/v1",
		"openai_model":         "gpt-4.1",
		"image_base_url":       "https://api.openai.com/v1",
		"image_model":          "gpt-image-1",
		"valuation_base_url":   "",
		"provider_rpm":         60,
		"provider_timeout":     "60s",
		"port":                 "8080",
		"host":                 "0.0.0.0",
		"server_read_timeout":  "15s",
		"server_write_timeout": "10m",
		"allowed_origins":      "*",
		"redis_host":           "",
		"redis_port":           "6379",
		"redis_db":             0,
		"redis_channel":        "articleforge:runs",
		"database_url":         "",
		"typesense_url":        "",
		"typesense_collection": "articles",
		"otel_enabled":         false,
		"otel_exporter":        "none",
		"otel_endpoint":        "localhost:4317",
		"otel_service_name":    "articleforge",
		"otel_service_version": "1.0.0",
		"research_ttl":         "0s",
	}
	for _, stage := range StageNames {
		d["stage_timeout_"+stage] = defaultStageTimeouts[stage].String()
	}
	return d
}

// Load loads configuration from environment variables and the optional CONFIG_FILE
func Load() (*Config, error) {
	return LoadFile(os.Getenv("CONFIG_FILE"))
}

// LoadFile loads configuration from path (YAML) overlaid by environment variables
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:       v.GetString("app_name"),
			Env:        firstNonEmpty(v.GetString("app_env"), os.Getenv("NODE_ENV"), "production"),
			LogLevel:   v.GetString("log_level"),
			ConfigFile: path,
		},
		Storage: StorageConfig{
			RootDir:   v.GetString("root_dir"),
			Bucket:    v.GetString("output_bucket"),
			Prefix:    v.GetString("output_prefix"),
			CacheSize: v.GetInt("artifact_cache_size"),
		},
		Workflow: WorkflowConfig{
			BatchSize:         v.GetInt("batch_size"),
			ContinueOnFailure: v.GetBool("continue_on_failure"),
			StageTimeouts:     make(map[string]time.Duration, len(StageNames)),
			StageTTLs:         make(map[string]time.Duration, len(StageNames)),
			SectionMinWords:   v.GetInt("section_min_words"),
			SectionMaxWords:   v.GetInt("section_max_words"),
			DensityMin:        v.GetFloat64("density_min"),
			DensityMax:        v.GetFloat64("density_max"),
			ExportDir:         v.GetString("export_dir"),
			LockTTL:           getDuration(v, "lock_ttl", 15*time.Minute),
			Draft:             v.GetBool("draft"),
		},
		Retry: RetryConfig{
			MaxAttempts:     v.GetInt("retry_max_attempts"),
			BaseDelay:       getDuration(v, "retry_base_delay", time.Second),
			Multiplier:      v.GetFloat64("retry_multiplier"),
			MaxDelay:        getDuration(v, "retry_max_delay", 30*time.Second),
			Jitter:          v.GetFloat64("retry_jitter"),
			BreakerFailures: v.GetInt("breaker_failures"),
			BreakerCooldown: getDuration(v, "breaker_cooldown", 30*time.Second),
		},
		Server: ServerConfig{
			Port:           v.GetString("port"),
			Host:           v.GetString("host"),
			ReadTimeout:    getDuration(v, "server_read_timeout", 15*time.Second),
			WriteTimeout:   getDuration(v, "server_write_timeout", 10*time.Minute),
			AllowedOrigins: splitList(v.GetString("allowed_origins")),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis_host"),
			Port:     v.GetString("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			Channel:  v.GetString("redis_channel"),
		},
		Database: DatabaseConfig{
			URL:          v.GetString("database_url"),
			MaxOpenConns: 10,
			MaxIdleConns: 2,
		},
		Typesense: TypesenseConfig{
			URL:        v.GetString("typesense_url"),
			APIKey:     v.GetString("typesense_api_key"),
			Collection: v.GetString("typesense_collection"),
		},
		OTEL: OTELConfig{
			Enabled:        v.GetBool("otel_enabled"),
			Exporter:       v.GetString("otel_exporter"),
			Endpoint:       v.GetString("otel_endpoint"),
			ServiceName:    v.GetString("otel_service_name"),
			ServiceVersion: v.GetString("otel_service_version"),
		},
	}
	cfg.Redis.Enabled = cfg.Redis.Host != ""

	for _, stage := range StageNames {
		cfg.Workflow.StageTimeouts[stage] = getDuration(v, "stage_timeout_"+stage, defaultStageTimeouts[stage])
		cfg.Workflow.StageTTLs[stage] = getDuration(v, "stage_ttl_"+stage, 0)
	}
	if ttl := getDuration(v, "research_ttl", 0); ttl > 0 {
		cfg.Workflow.StageTTLs["research"] = ttl
	}

	cfg.Providers = loadProviders(v)

	mode, err := resolveMode(v.GetString("mode"), cfg.App.Env)
	if err != nil {
		return nil, err
	}
	cfg.App.Mode = mode

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadProviders(v *viper.Viper) ProvidersConfig {
	rpm := v.GetInt("provider_rpm")
	timeout := getDuration(v, "provider_timeout", 60*time.Second)
	provider := func(prefix string) ProviderConfig {
		p := ProviderConfig{
			APIKey:   v.GetString(prefix + "_api_key"),
			Login:    v.GetString(prefix + "_api_login"),
			Password: v.GetString(prefix + "_api_password"),
			BaseURL:  v.GetString(prefix + "_base_url"),
			Model:    v.GetString(prefix + "_model"),
			RPM:      rpm,
			Timeout:  timeout,
		}
		if own := v.GetInt(prefix + "_rpm"); own > 0 {
			p.RPM = own
		}
		return p
	}

	providers := ProvidersConfig{
		Keywords:  provider("keywords"),
		SERP:      provider("serp"),
		PAA:       provider("paa"),
		Anthropic: provider("anthropic"),
		OpenAI:    provider("openai"),
		Image:     provider("image"),
		Valuation: provider("valuation"),
		CMS:       provider("cms"),
	}
	if providers.PAA.APIKey == "" {
		providers.PAA.APIKey = providers.SERP.APIKey
	}
	if providers.Image.APIKey == "" {
		providers.Image.APIKey = providers.OpenAI.APIKey
	}
	providers.CMS.BaseURL = firstNonEmpty(v.GetString("cms_url"), providers.CMS.BaseURL)
	providers.CMS.APIKey = firstNonEmpty(v.GetString("cms_token"), providers.CMS.APIKey)
	return providers
}

func resolveMode(raw, env string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeStrict:
		return ModeStrict, nil
	case ModeDevelopment:
		return ModeDevelopment, nil
	case "":
		if strings.EqualFold(env, "development") {
			return ModeDevelopment, nil
		}
		return ModeStrict, nil
	default:
		return "", fmt.Errorf("invalid MODE %q: must be strict or development", raw)
	}
}

// Validate checks the configuration for values the engine cannot run with
func (c *Config) Validate() error {
	if c.Storage.RootDir == "" && c.Storage.Bucket == "" {
		return fmt.Errorf("either ROOT_DIR or OUTPUT_BUCKET must be set")
	}
	if c.Workflow.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be at least 1, got %d", c.Workflow.BatchSize)
	}
	if c.Workflow.SectionMinWords < 1 || c.Workflow.SectionMaxWords < c.Workflow.SectionMinWords {
		return fmt.Errorf("invalid section word bounds [%d, %d]", c.Workflow.SectionMinWords, c.Workflow.SectionMaxWords)
	}
	if c.Workflow.DensityMin < 0 || c.Workflow.DensityMax <= c.Workflow.DensityMin {
		return fmt.Errorf("invalid density band [%v, %v]", c.Workflow.DensityMin, c.Workflow.DensityMax)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

// IsDevelopment reports whether mock fallback is permitted
func (c *Config) IsDevelopment() bool {
	return c.App.Mode == ModeDevelopment
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// WriteDefaults writes the default configuration file to path, replacing any existing file
func WriteDefaults(path string) error {
	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write defaults: %w", err)
	}
	return os.Rename(tmp, path)
}

// getDuration accepts Go durations ("90s") and bare integers as seconds
func getDuration(v *viper.Viper, key string, defaultValue time.Duration) time.Duration {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return defaultValue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
