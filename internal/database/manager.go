package database

import (
	"database/sql"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Manager owns the production database and, while developer mode is on, a
// throwaway development database used together with the offline catalog.
type Manager struct {
	prodDB    *DB
	devDB     *DB
	devDBPath string
	devMode   bool
	mu        sync.RWMutex
	logger    zerolog.Logger
}

// NewManager opens the production database. The development database is
// created on the first switch into developer mode.
func NewManager(prodPath, devPath string, logger zerolog.Logger) (*Manager, error) {
	prodDB, err := New(prodPath)
	if err != nil {
		return nil, err
	}

	return &Manager{
		prodDB:    prodDB,
		devDBPath: devPath,
		logger:    logger.With().Str("component", "database").Logger(),
	}, nil
}

// Conn returns the active connection.
func (m *Manager) Conn() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.devMode && m.devDB != nil {
		return m.devDB.Conn()
	}
	return m.prodDB.Conn()
}

// SetDevMode switches between the production and development databases.
// Entering developer mode always starts from an empty, migrated database.
func (m *Manager) SetDevMode(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if enabled {
		if m.devDB != nil {
			m.devDB.Close()
			m.devDB = nil
		}
		if err := os.Remove(m.devDBPath); err != nil && !os.IsNotExist(err) {
			m.logger.Warn().Err(err).Str("path", m.devDBPath).Msg("Failed to delete development database")
		}

		devDB, err := New(m.devDBPath)
		if err != nil {
			return err
		}
		if err := devDB.Migrate(); err != nil {
			devDB.Close()
			return err
		}
		m.devDB = devDB
		m.logger.Info().Str("path", m.devDBPath).Msg("Created development database")
	}

	m.devMode = enabled
	m.logger.Info().Bool("devMode", enabled).Msg("Developer mode changed")
	return nil
}

// IsDevMode reports whether the development database is active.
func (m *Manager) IsDevMode() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.devMode
}

// Migrate runs migrations on the production database.
func (m *Manager) Migrate() error {
	return m.prodDB.Migrate()
}

// Prod returns the production database regardless of developer mode.
func (m *Manager) Prod() *DB {
	return m.prodDB
}

// Close closes both databases.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var devErr error
	if m.devDB != nil {
		devErr = m.devDB.Close()
	}
	if err := m.prodDB.Close(); err != nil {
		return err
	}
	return devErr
}
