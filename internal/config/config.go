package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/brandgate/creative-automation/pkg/errors"
)

// Config carries all environment-driven settings for a pipeline run.
type Config struct {
	AppEnv   string
	AppName  string
	LogLevel string

	// Generation API.
	GenerationEndpoint   string
	GenerationAPIKey     string
	GenerationTimeout    time.Duration
	GenerationMaxElapsed time.Duration

	// Redis asset cache index.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Directories.
	BriefsDir  string
	AssetsDir  string
	OutputDir  string
	ReportsDir string

	// Legal screening.
	TermTablePath string

	// Object storage.
	UploadEnabled bool
	S3Bucket      string
	S3Endpoint    string
	S3Region      string
	S3AccessKey   string
	S3SecretKey   string
	S3BasePath    string

	// Watcher mode.
	WatchCron   string
	MetricsPort string

	MaxConcurrentProducts int
}

// Load reads configuration from the environment, applying defaults for
// anything unset. Malformed numeric or duration values return
// errors.ErrConfiguration.
func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		AppName:            getEnv("APP_NAME", "creative-automation"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		GenerationEndpoint: os.Getenv("GENERATION_ENDPOINT"),
		GenerationAPIKey:   os.Getenv("GENERATION_API_KEY"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		BriefsDir:          getEnv("BRIEFS_DIR", "briefs"),
		AssetsDir:          getEnv("ASSETS_DIR", "assets"),
		OutputDir:          getEnv("OUTPUT_DIR", "outputs"),
		ReportsDir:         getEnv("REPORTS_DIR", "reports"),
		TermTablePath:      getEnv("PROHIBITED_WORDS_PATH", "data/prohibited_words.json"),
		S3Bucket:           os.Getenv("S3_BUCKET"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3AccessKey:        os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:        os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3BasePath:         getEnv("S3_BASE_PATH", "creative-automation"),
		WatchCron:          os.Getenv("WATCH_CRON"),
		MetricsPort:        getEnv("METRICS_PORT", "9090"),
	}

	var err error
	if cfg.GenerationTimeout, err = getDuration("GENERATION_TIMEOUT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.GenerationMaxElapsed, err = getDuration("GENERATION_MAX_ELAPSED", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = getInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentProducts, err = getInt("MAX_CONCURRENT_PRODUCTS", 4); err != nil {
		return nil, err
	}
	if cfg.MaxConcurrentProducts < 1 {
		return nil, errors.Wrap(errors.ErrConfiguration, "MAX_CONCURRENT_PRODUCTS must be positive")
	}
	if cfg.UploadEnabled, err = getBool("UPLOAD_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.UploadEnabled && cfg.S3Bucket == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "UPLOAD_ENABLED requires S3_BUCKET")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("invalid %s: %q", key, v))
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("invalid %s: %q", key, v))
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrap(errors.ErrConfiguration, fmt.Sprintf("invalid %s: %q", key, v))
	}
	return d, nil
}
