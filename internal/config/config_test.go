package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.TMDB.Region != "US" {
		t.Errorf("TMDB.Region = %q, want US", cfg.TMDB.Region)
	}
	if cfg.Reclassify.BatchSize != 10 {
		t.Errorf("Reclassify.BatchSize = %d, want 10", cfg.Reclassify.BatchSize)
	}
	if cfg.TMDB.RequestTimeout() != 30*time.Second {
		t.Errorf("RequestTimeout() = %v, want 30s", cfg.TMDB.RequestTimeout())
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 9090\ntmdb:\n  region: IN\n  api_key: from-file\nreclassify:\n  batch_size: 25\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CINETRACK_TMDB_API_KEY", "from-env")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.TMDB.Region != "IN" {
		t.Errorf("TMDB.Region = %q, want IN", cfg.TMDB.Region)
	}
	if cfg.TMDB.APIKey != "from-env" {
		t.Errorf("TMDB.APIKey = %q, env should win over file", cfg.TMDB.APIKey)
	}
	if cfg.Reclassify.BatchSize != 25 {
		t.Errorf("Reclassify.BatchSize = %d, want 25", cfg.Reclassify.BatchSize)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("CINETRACK_AUTH_JWT_SECRET=dotenv-secret\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Registered so the variable set by godotenv is cleared after the test.
	t.Setenv("CINETRACK_AUTH_JWT_SECRET", "")
	os.Unsetenv("CINETRACK_AUTH_JWT_SECRET")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTSecret != "dotenv-secret" {
		t.Errorf("Auth.JWTSecret = %q, want value from .env", cfg.Auth.JWTSecret)
	}
}

func TestLoad_EmbeddedKeyFallback(t *testing.T) {
	t.Chdir(t.TempDir())

	old := EmbeddedTMDBKey
	EmbeddedTMDBKey = "embedded"
	defer func() { EmbeddedTMDBKey = old }()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TMDB.APIKey != "embedded" {
		t.Errorf("TMDB.APIKey = %q, want embedded fallback", cfg.TMDB.APIKey)
	}
}
