package config

import (
	"strings"
	"testing"
)

func TestValidate_InvalidCacheDriver(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Cache: CacheConfig{Driver: "memcached"},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid cache driver")
	}

	expected := `cache.driver must be "sqlite", "redis" or "none", got "memcached"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidCacheDrivers(t *testing.T) {
	for _, driver := range []string{"sqlite", "none", "redis"} {
		t.Run("driver="+driver, func(t *testing.T) {
			cfg := Config{
				HTTP: HTTPConfig{Port: 8080},
				Cache: CacheConfig{
					Driver: driver,
					Redis:  RedisConfig{Addrs: []string{"localhost:6379"}},
				},
			}
			cfg.ApplyDefaults()

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid driver %q: %v", driver, err)
			}
		})
	}
}

func TestValidate_RedisWithoutAddrs(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Cache: CacheConfig{Driver: "redis"},
	}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for redis cache without addrs")
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Config{HTTP: HTTPConfig{Port: 0}}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_PageSizes(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080},
		Search: SearchConfig{DefaultPageSize: 200, MaxPageSize: 50},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for default page size above max")
	}
	if !strings.Contains(err.Error(), "search.default_page_size") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Path != "ppg_incidents.db" {
		t.Errorf("expected Path=ppg_incidents.db, got %q", cfg.Database.Path)
	}
	if cfg.Database.BusyTimeoutMS != 5000 {
		t.Errorf("expected BusyTimeoutMS=5000, got %d", cfg.Database.BusyTimeoutMS)
	}
	if cfg.Embedding.Model != "text-embedding-3-large" {
		t.Errorf("expected default model, got %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 3072 {
		t.Errorf("expected Dimensions=3072, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Cache.Driver != "sqlite" {
		t.Errorf("expected cache driver sqlite, got %q", cfg.Cache.Driver)
	}
	if cfg.Search.DuplicateNeighbors != 3 {
		t.Errorf("expected DuplicateNeighbors=3, got %d", cfg.Search.DuplicateNeighbors)
	}
	if cfg.Search.DefaultPageSize != 20 || cfg.Search.MaxPageSize != 100 {
		t.Errorf("unexpected page sizes: %d/%d", cfg.Search.DefaultPageSize, cfg.Search.MaxPageSize)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:      HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Database:  DatabaseConfig{Path: "/data/incidents.db"},
		Embedding: EmbeddingConfig{Model: "text-embedding-3-small", Dimensions: 1536},
		Search:    SearchConfig{TextCandidates: 500},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Database.Path != "/data/incidents.db" {
		t.Errorf("expected custom path, got %q", cfg.Database.Path)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("expected Dimensions=1536, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Search.TextCandidates != 500 {
		t.Errorf("expected TextCandidates=500, got %d", cfg.Search.TextCandidates)
	}
}

func TestParse_ExpandsEnvVars(t *testing.T) {
	t.Setenv("PPG_TEST_PORT", "9090")

	cfg, err := Parse([]byte(`
http:
  port: ${PPG_TEST_PORT}
database:
  path: ${PPG_TEST_MISSING:-/tmp/fallback.db}
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "/tmp/fallback.db" {
		t.Errorf("expected fallback path, got %q", cfg.Database.Path)
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port == 0 {
		t.Error("expected port from local config")
	}
}

func TestValidate_NegativeCacheTTL(t *testing.T) {
	cfg := Config{
		HTTP:  HTTPConfig{Port: 8080},
		Cache: CacheConfig{Driver: "sqlite", TTLHours: -1},
	}
	cfg.ApplyDefaults()

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "cache.ttl_hours") {
		t.Fatalf("expected cache.ttl_hours error, got %v", err)
	}
}
