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
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	Boundary BoundaryConfig `yaml:"boundary" mapstructure:"boundary"`
	Redis    RedisConfig    `yaml:"redis" mapstructure:"redis"`
	Score    ScoreConfig    `yaml:"score" mapstructure:"score"`
	Columns  ColumnsConfig  `yaml:"columns" mapstructure:"columns"`
	Region   RegionConfig   `yaml:"region" mapstructure:"region"`
	Report   ReportConfig   `yaml:"report" mapstructure:"report"`
	Overpass OverpassConfig `yaml:"overpass" mapstructure:"overpass"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run history backend.
// Driver is one of "sqlite", "postgres" or "none".
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// BoundaryConfig configures where region boundary GeoJSON comes from.
type BoundaryConfig struct {
	URLs          []string `yaml:"urls" mapstructure:"urls"`
	File          string   `yaml:"file" mapstructure:"file"`
	NameProperty  string   `yaml:"name_property" mapstructure:"name_property"`
	TimeoutSecs   int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int      `yaml:"max_retries" mapstructure:"max_retries"`
	CacheTTLHours int      `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	UserAgent     string   `yaml:"user_agent" mapstructure:"user_agent"`
}

// RedisConfig configures the optional boundary cache. Empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// ScoreConfig holds the vulnerability score parameters.
type ScoreConfig struct {
	RatioWeight float64 `yaml:"ratio_weight" mapstructure:"ratio_weight"`
	RateWeight  float64 `yaml:"rate_weight" mapstructure:"rate_weight"`
	Epsilon     float64 `yaml:"epsilon" mapstructure:"epsilon"`
	// RatePer is the household denominator unit (facilities per RatePer households).
	RatePer    float64 `yaml:"rate_per" mapstructure:"rate_per"`
	ByCategory bool    `yaml:"by_category" mapstructure:"by_category"`
}

// ColumnsConfig pins input columns by header name. Empty values are auto-detected.
type ColumnsConfig struct {
	Region     string `yaml:"region" mapstructure:"region"`
	Ratio      string `yaml:"ratio" mapstructure:"ratio"`
	Households string `yaml:"households" mapstructure:"households"`
	Address    string `yaml:"address" mapstructure:"address"`
	Category   string `yaml:"category" mapstructure:"category"`
}

// RegionConfig configures region name normalization.
type RegionConfig struct {
	AliasFile string `yaml:"alias_file" mapstructure:"alias_file"`
}

// ReportConfig configures ranked tables and exports.
type ReportConfig struct {
	TopN      int    `yaml:"top_n" mapstructure:"top_n"`
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// OverpassConfig configures the OSM Overpass facility source.
type OverpassConfig struct {
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb" mapstructure:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultBoundaryURLs are tried in order when no boundary file is supplied.
var DefaultBoundaryURLs = []string{
	"https://raw.githubusercontent.com/southkorea/sigungu-maps/master/korea-sigungu.geojson",
	"https://raw.githubusercontent.com/southkorea/sido-maps/master/korea-sigungu.geojson",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ACCESS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "access.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("boundary.urls", DefaultBoundaryURLs)
	v.SetDefault("boundary.name_property", "SIG_KOR_NM")
	v.SetDefault("boundary.timeout_secs", 10)
	v.SetDefault("boundary.max_retries", 1)
	v.SetDefault("boundary.cache_ttl_hours", 24)
	v.SetDefault("boundary.user_agent", "access-cli/1.0")
	v.SetDefault("redis.db", 0)
	v.SetDefault("score.ratio_weight", 1.0)
	v.SetDefault("score.rate_weight", 1.0)
	v.SetDefault("score.epsilon", 1e-9)
	v.SetDefault("score.rate_per", 1000.0)
	v.SetDefault("score.by_category", false)
	v.SetDefault("report.top_n", 10)
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("overpass.endpoint", "https://overpass-api.de/api/interpreter")
	v.SetDefault("overpass.timeout_secs", 30)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings required by a command mode
// ("analyze", "serve" or "runs").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "analyze":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.MaxUploadMB <= 0 {
			errs = append(errs, "server.max_upload_mb must be > 0")
		}
	case "runs":
		if c.Store.Driver == "none" {
			errs = append(errs, "store.driver must not be none to list runs")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "none":
	default:
		errs = append(errs, "store.driver must be one of sqlite, postgres, none")
	}

	if c.Score.RatioWeight < 0 || c.Score.RateWeight < 0 {
		errs = append(errs, "score weights must be >= 0")
	}
	if c.Boundary.TimeoutSecs <= 0 {
		errs = append(errs, "boundary.timeout_secs must be > 0")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
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
