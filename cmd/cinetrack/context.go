package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cinetrack/cinetrack/internal/api"
	"github.com/cinetrack/cinetrack/internal/config"
	"github.com/cinetrack/cinetrack/internal/database"
	"github.com/cinetrack/cinetrack/internal/logger"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

// newLogger builds the application logger. Streaming is only useful for the
// server, which pushes entries to websocket clients.
func newLogger(cfg *config.Config, streaming bool) *logger.Logger {
	return logger.New(logger.Config{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		Path:            cfg.Logging.Path,
		MaxSizeMB:       cfg.Logging.MaxSizeMB,
		MaxBackups:      cfg.Logging.MaxBackups,
		MaxAgeDays:      cfg.Logging.MaxAgeDays,
		Compress:        cfg.Logging.Compress,
		EnableStreaming: streaming,
		BufferSize:      1000,
	})
}

// devDBPath places the developer-mode database next to the production one.
func devDBPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_dev" + ext
}

// openDatabase opens and migrates the signed-in store.
func openDatabase(cfg *config.Config, log *logger.Logger) (*database.Manager, error) {
	dbManager, err := database.NewManager(cfg.Database.Path, devDBPath(cfg.Database.Path), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := dbManager.Migrate(); err != nil {
		dbManager.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return dbManager, nil
}

// offlineServer wires the services without serving HTTP, for one-shot
// commands. The caller closes the returned database manager.
func (c *commandContext) offlineServer() (*api.Server, *database.Manager, *logger.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.Storage.WatchFile = false

	log := newLogger(cfg, false)
	dbManager, err := openDatabase(cfg, log)
	if err != nil {
		log.Close()
		return nil, nil, nil, err
	}

	server, err := api.NewServer(dbManager, nil, cfg, log.Logger)
	if err != nil {
		dbManager.Close()
		log.Close()
		return nil, nil, nil, err
	}
	return server, dbManager, log, nil
}
