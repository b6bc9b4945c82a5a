package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero ngram", func(c *Config) { c.Search.NGramSize = 0 }},
		{"similarity above one", func(c *Config) { c.Search.Similarity = 1.1 }},
		{"negative similarity", func(c *Config) { c.Search.Similarity = -0.1 }},
		{"no workers", func(c *Config) { c.Search.Workers = 0 }},
		{"negative max documents", func(c *Config) { c.Search.MaxDocuments = -1 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "cassandra" }},
		{"file backend without dir", func(c *Config) { c.Store.Backend = BackendFile; c.Store.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, apperrors.ErrInvalidConfig) {
				t.Fatalf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9000
  readTimeout: 5s
search:
  similarity: 0.75
  ngramSize: 3
  stopWords: true
store:
  backend: file
  dataDir: /tmp/fsidx
redis:
  cacheTTL: 2m
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9000 || cfg.Server.ReadTimeout != 5*time.Second {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Search.Similarity != 0.75 || cfg.Search.NGramSize != 3 || !cfg.Search.StopWords {
		t.Fatalf("search = %+v", cfg.Search)
	}
	if cfg.Search.Workers != 8 {
		t.Fatalf("unset field lost its default: workers = %d", cfg.Search.Workers)
	}
	if cfg.Store.Backend != BackendFile || cfg.Store.DataDir != "/tmp/fsidx" {
		t.Fatalf("store = %+v", cfg.Store)
	}
	if cfg.Redis.CacheTTL != 2*time.Minute {
		t.Fatalf("cacheTTL = %v", cfg.Redis.CacheTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FS_SERVER_PORT", "7070")
	t.Setenv("FS_SEARCH_SIMILARITY", "0.8")
	t.Setenv("FS_STORE_BACKEND", BackendRedis)
	t.Setenv("FS_KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FS_SEARCH_WORKERS", "not-a-number")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 || cfg.Search.Similarity != 0.8 || cfg.Store.Backend != BackendRedis {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Search.Workers != 8 {
		t.Fatalf("malformed override changed workers to %d", cfg.Search.Workers)
	}
}

func TestLoadRejectsInvalidResult(t *testing.T) {
	t.Setenv("FS_SEARCH_NGRAM_SIZE", "0")
	if _, err := Load(""); !errors.Is(err, apperrors.ErrInvalidConfig) {
		t.Fatalf("Load = %v, want ErrInvalidConfig", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestPostgresDSN(t *testing.T) {
	got := Default().Postgres.DSN()
	want := "host=localhost port=5432 user=fuzzysearch password=localdev dbname=fuzzysearch sslmode=disable"
	if got != want {
		t.Fatalf("DSN = %q, want %q", got, want)
	}
}
