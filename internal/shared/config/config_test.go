package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFromViperDefaults(t *testing.T) {
	cfg := FromViper(New())

	if cfg.Port != "8080" || cfg.Env != "dev" {
		t.Fatalf("unexpected port/env: %q %q", cfg.Port, cfg.Env)
	}
	if cfg.ObjectStoreType != "local" || cfg.LocalStoreDir != "./data" {
		t.Fatalf("unexpected store defaults: %+v", cfg)
	}
	if cfg.CacheTTL != 24*time.Hour {
		t.Fatalf("expected 24h cache ttl, got %s", cfg.CacheTTL)
	}
	if cfg.CacheMaxEntries != 10000 {
		t.Fatalf("expected 10000 cache entries, got %d", cfg.CacheMaxEntries)
	}
	if cfg.MaxUploadBytes != 10<<20 || cfg.MaxPages != 50 {
		t.Fatalf("unexpected limits: %d bytes, %d pages", cfg.MaxUploadBytes, cfg.MaxPages)
	}
	if len(cfg.CORSAllowOrigin) != 1 || cfg.CORSAllowOrigin[0] != "http://localhost:3000" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowOrigin)
	}
	if !cfg.LogJSON || cfg.LogLevel != "info" {
		t.Fatalf("unexpected log defaults: %q json=%v", cfg.LogLevel, cfg.LogJSON)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" {
		t.Fatalf("expected empty db/redis urls by default")
	}
}

func TestFromViperReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "prod")
	t.Setenv("OBJECT_STORE", "S3")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("CACHE_TTL", "90m")
	t.Setenv("MAX_PAGES", "7")
	t.Setenv("LOG_JSON", "false")
	t.Setenv("ANALYZE_RATE", "0.5")

	cfg := FromViper(New())

	if cfg.Port != "9090" {
		t.Fatalf("expected port from env, got %q", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Fatalf("expected normalized env production, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "s3" {
		t.Fatalf("expected s3 store, got %q", cfg.ObjectStoreType)
	}
	if len(cfg.CORSAllowOrigin) != 2 || cfg.CORSAllowOrigin[1] != "https://b.example" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSAllowOrigin)
	}
	if cfg.CacheTTL != 90*time.Minute || cfg.MaxPages != 7 {
		t.Fatalf("unexpected ttl/pages: %s %d", cfg.CacheTTL, cfg.MaxPages)
	}
	if cfg.LogJSON {
		t.Fatalf("expected LOG_JSON=false to disable json")
	}
	if cfg.AnalyzeRate != 0.5 {
		t.Fatalf("expected analyze rate 0.5, got %v", cfg.AnalyzeRate)
	}
}

func TestLoadMergesConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.yaml")
	body := "port: \"7070\"\nmax_upload_bytes: 2048\nanalysis_tables_file: /etc/cv/tables.yaml\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MAX_PAGES", "3")

	cfg := Load()

	if cfg.Port != "7070" {
		t.Fatalf("expected port from file, got %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 2048 {
		t.Fatalf("expected max upload from file, got %d", cfg.MaxUploadBytes)
	}
	if cfg.TablesFile != "/etc/cv/tables.yaml" {
		t.Fatalf("unexpected tables file %q", cfg.TablesFile)
	}
	if cfg.MaxPages != 3 {
		t.Fatalf("expected env to override file defaults, got %d", cfg.MaxPages)
	}
}

func TestNormalizeEnv(t *testing.T) {
	tests := map[string]string{
		"":            "dev",
		"development": "dev",
		"PROD":        "production",
		"staging":     "staging",
		"local":       "local",
		"weird":       "dev",
	}
	for in, want := range tests {
		if got := normalizeEnv(in); got != want {
			t.Fatalf("normalizeEnv(%q)=%q want %q", in, got, want)
		}
	}
}
