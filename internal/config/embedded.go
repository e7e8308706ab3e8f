package config

// EmbeddedTMDBKey is injected at build time and used when no key is
// configured through the config file or environment.
//
// Build with:
//
//	go build -ldflags "-X 'github.com/cinetrack/cinetrack/internal/config.EmbeddedTMDBKey=xxx'"
var EmbeddedTMDBKey string

// Version is the application version, injected at build time.
var Version = "dev"
