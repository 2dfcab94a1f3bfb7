package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string
	DatabaseURL     string
	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int
	MaxUploadBytes  int64
	MaxPages        int
	TablesFile      string
	LogLevel        string
	LogJSON         bool
	AnalyzeRate     float64
	AnalyzeBurst    int
}

// Load reads configuration from defaults, optional env files, an optional
// CONFIG_FILE, and environment variables, in increasing order of precedence.
func Load() Config {
	v := New()

	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(v, ".env", "cmd/.env")

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			log.Printf("config: failed to read %s: %v", path, err)
		}
	}

	cfg := FromViper(v)
	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg
}

// New returns a viper instance with defaults registered and environment
// lookup enabled. Keys are the lower-cased environment variable names.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("env", "dev")
	v.SetDefault("cors_allow_origins", "http://localhost:3000")
	v.SetDefault("object_store", "local")
	v.SetDefault("local_store_dir", "./data")
	v.SetDefault("aws_region", "")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_prefix", "")
	v.SetDefault("sse_kms_key_id", "")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", "24h")
	v.SetDefault("cache_max_entries", 10000)
	v.SetDefault("max_upload_bytes", 10<<20)
	v.SetDefault("max_pages", 50)
	v.SetDefault("analysis_tables_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", true)
	v.SetDefault("analyze_rate", 2.0)
	v.SetDefault("analyze_burst", 10)
	v.SetDefault("config_file", "")
	v.AutomaticEnv()
	return v
}

// FromViper materializes a Config from a populated viper instance.
func FromViper(v *viper.Viper) Config {
	return Config{
		Port:            v.GetString("port"),
		Env:             normalizeEnv(v.GetString("env")),
		CORSAllowOrigin: splitAndTrim(v.GetString("cors_allow_origins")),
		ObjectStoreType: normalizeStoreType(v.GetString("object_store")),
		LocalStoreDir:   v.GetString("local_store_dir"),
		AWSRegion:       v.GetString("aws_region"),
		S3Bucket:        v.GetString("s3_bucket"),
		S3Prefix:        v.GetString("s3_prefix"),
		SSEKMSKeyID:     v.GetString("sse_kms_key_id"),
		DatabaseURL:     strings.TrimSpace(v.GetString("database_url")),
		RedisURL:        strings.TrimSpace(v.GetString("redis_url")),
		CacheTTL:        v.GetDuration("cache_ttl"),
		CacheMaxEntries: v.GetInt("cache_max_entries"),
		MaxUploadBytes:  v.GetInt64("max_upload_bytes"),
		MaxPages:        v.GetInt("max_pages"),
		TablesFile:      strings.TrimSpace(v.GetString("analysis_tables_file")),
		LogLevel:        v.GetString("log_level"),
		LogJSON:         v.GetBool("log_json"),
		AnalyzeRate:     v.GetFloat64("analyze_rate"),
		AnalyzeBurst:    v.GetInt("analyze_burst"),
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
