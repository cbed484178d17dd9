package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// logging
	LogLevel    string `toml:"log_level"`
	LogsPath    string `toml:"logs_path"`
	LogToStdout bool   `toml:"log_to_stdout"`

	SentryEnabled bool `toml:"sentry_enabled"`

	// redis, for sessions and rate limiting
	RedisHost                   string `toml:"redis_host"`
	RedisPort                   string `toml:"redis_port"`
	LoginRateLimitAllowedPerMin int    `toml:"login_rate_limit_allowed_per_min"`

	// the backing spreadsheet
	SpreadsheetID         string `toml:"spreadsheet_id"`
	GoogleCredentialsPath string `toml:"google_credentials_path"`
	SheetsCacheTTLSeconds int    `toml:"sheets_cache_ttl_seconds"`

	MealImagesRootPath string `toml:"meal_images_root_path"`

	// the big day the whole cut is aiming at, YYYY-MM-DD
	GoalDate string `toml:"goal_date"`

	// daily targets
	CalorieTarget float64 `toml:"calorie_target"`
	ProteinTarget float64 `toml:"protein_target"`
	FatTarget     float64 `toml:"fat_target"`
	CarbTarget    float64 `toml:"carb_target"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlFile Toml
	if _, err := toml.DecodeFile(path, &tomlFile); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlFile.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}

	cfg.Environment = env

	if cfg.GoalDate != "" {
		if _, err := time.Parse("2006-01-02", cfg.GoalDate); err != nil {
			return nil, fmt.Errorf("invalid goal_date [%s]: %w", cfg.GoalDate, err)
		}
	}

	if cfg.SheetsCacheTTLSeconds <= 0 {
		cfg.SheetsCacheTTLSeconds = 60
	}
	if cfg.LoginRateLimitAllowedPerMin <= 0 {
		cfg.LoginRateLimitAllowedPerMin = 15
	}

	return cfg, nil
}

// GoalDay returns the configured goal date, or zero time when not set
func (c *Config) GoalDay() time.Time {
	if c.GoalDate == "" {
		return time.Time{}
	}
	day, err := time.Parse("2006-01-02", c.GoalDate)
	if err != nil {
		// validated in Load
		return time.Time{}
	}
	return day
}
