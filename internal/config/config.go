package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "formguard"

// Config captures runtime configuration. Values come from defaults, an
// optional YAML file, an optional .env file and FORMGUARD_* environment
// variables, in increasing order of precedence.
type Config struct {
	Environment   string        `yaml:"environment"   envconfig:"ENV"`
	HTTPPort      string        `yaml:"httpPort"      split_words:"true"`
	DatabasePath  string        `yaml:"databasePath"  split_words:"true"`
	LogDir        string        `yaml:"logDir"        split_words:"true"`
	Debug         bool          `yaml:"debug"`
	JWTSecret     string        `yaml:"jwtSecret"     split_words:"true"`
	StoreTimeout  time.Duration `yaml:"storeTimeout"  split_words:"true"`
	AlertURL      string        `yaml:"alertUrl"      split_words:"true"`
	AlertCooldown time.Duration `yaml:"alertCooldown" split_words:"true"`
	RetentionDays int           `yaml:"retentionDays" split_words:"true"`
	PurgeSchedule string        `yaml:"purgeSchedule" split_words:"true"`
	Guard         GuardConfig   `yaml:"guard"`

	// Warnings collects adjustments made while loading, for the caller to log.
	Warnings []string `yaml:"-" ignored:"true"`
}

// GuardConfig holds the admission policy thresholds.
type GuardConfig struct {
	RateLimit               int     `json:"rate_limit"                yaml:"rateLimit"               split_words:"true"`
	TimeWindowHours         int     `json:"time_window_hours"         yaml:"timeWindowHours"         split_words:"true"`
	ConfidenceThreshold     float64 `json:"confidence_threshold"      yaml:"confidenceThreshold"     split_words:"true"`
	SpamThreshold           int     `json:"spam_threshold"            yaml:"spamThreshold"           split_words:"true"`
	BlockMissingFingerprint bool    `json:"block_missing_fingerprint" yaml:"blockMissingFingerprint" split_words:"true"`
}

// Policy bounds and defaults.
const (
	DefaultRateLimit           = 5
	MinRateLimit               = 1
	MaxRateLimit               = 100
	DefaultTimeWindowHours     = 1
	MinTimeWindowHours         = 1
	MaxTimeWindowHours         = 24
	DefaultConfidenceThreshold = 0.5
	DefaultSpamThreshold       = 2
	MinSpamThreshold           = 1
	MaxSpamThreshold           = 10

	DefaultStoreTimeout  = 5 * time.Second
	DefaultAlertCooldown = 5 * time.Minute
	DefaultRetentionDays = 90
	DefaultPurgeSchedule = "@daily"
)

// DefaultGuardConfig returns the policy used when nothing is configured.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RateLimit:               DefaultRateLimit,
		TimeWindowHours:         DefaultTimeWindowHours,
		ConfidenceThreshold:     DefaultConfidenceThreshold,
		SpamThreshold:           DefaultSpamThreshold,
		BlockMissingFingerprint: false,
	}
}

// Default returns a Config populated with defaults only.
func Default() Config {
	return Config{
		Environment:   "development",
		HTTPPort:      "8080",
		DatabasePath:  filepath.Join("data", "formguard.db"),
		LogDir:        filepath.Join("data", "logs"),
		StoreTimeout:  DefaultStoreTimeout,
		AlertCooldown: DefaultAlertCooldown,
		RetentionDays: DefaultRetentionDays,
		PurgeSchedule: DefaultPurgeSchedule,
		Guard:         DefaultGuardConfig(),
	}
}

// Load builds the runtime configuration. configFile may be empty, in which
// case FORMGUARD_CONFIG is consulted.
func Load(configFile string) (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if configFile == "" {
		configFile = os.Getenv("FORMGUARD_CONFIG")
	}
	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	cfg.Warnings = append(cfg.Warnings, cfg.Guard.Sanitize()...)

	if cfg.StoreTimeout <= 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("store timeout %s is not positive, using %s", cfg.StoreTimeout, DefaultStoreTimeout))
		cfg.StoreTimeout = DefaultStoreTimeout
	}
	if cfg.RetentionDays < 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("retention days %d is negative, purge disabled", cfg.RetentionDays))
		cfg.RetentionDays = 0
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("FORMGUARD_JWT_SECRET is required in production")
		}
		secret, err := randomSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generate jwt secret: %w", err)
		}
		cfg.JWTSecret = secret
		cfg.Warnings = append(cfg.Warnings, "no jwt secret configured, generated an ephemeral one")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs in a production environment.
func (c Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// Sanitize clamps every policy value into its allowed range and returns a
// description of each adjustment made.
func (g *GuardConfig) Sanitize() []string {
	var warnings []string

	clampInt := func(name string, v *int, lo, hi int) {
		switch {
		case *v < lo:
			warnings = append(warnings, fmt.Sprintf("%s %d below minimum, using %d", name, *v, lo))
			*v = lo
		case *v > hi:
			warnings = append(warnings, fmt.Sprintf("%s %d above maximum, using %d", name, *v, hi))
			*v = hi
		}
	}

	clampInt("rate_limit", &g.RateLimit, MinRateLimit, MaxRateLimit)
	clampInt("time_window_hours", &g.TimeWindowHours, MinTimeWindowHours, MaxTimeWindowHours)
	clampInt("spam_threshold", &g.SpamThreshold, MinSpamThreshold, MaxSpamThreshold)

	switch {
	case math.IsNaN(g.ConfidenceThreshold):
		warnings = append(warnings, fmt.Sprintf("confidence_threshold is not a number, using %.2f", DefaultConfidenceThreshold))
		g.ConfidenceThreshold = DefaultConfidenceThreshold
	case g.ConfidenceThreshold < 0:
		warnings = append(warnings, fmt.Sprintf("confidence_threshold %.2f below minimum, using 0", g.ConfidenceThreshold))
		g.ConfidenceThreshold = 0
	case g.ConfidenceThreshold > 1:
		warnings = append(warnings, fmt.Sprintf("confidence_threshold %.2f above maximum, using 1", g.ConfidenceThreshold))
		g.ConfidenceThreshold = 1
	}

	return warnings
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
