// Package history stores executed command lines so they can be offered as
// completions later.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type HistoryManager struct {
	db            *gorm.DB
	schemaVersion string
	logger        *zap.Logger
}

type HistoryEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Command   string `gorm:"index"`
	Directory string
	ExitCode  sql.NullInt32
}

const (
	historySchemaVersion = 1
)

// NewHistoryManager opens (and if needed creates) the history database at
// dbFilePath. The schema version marker lives next to the database.
func NewHistoryManager(dbFilePath string, log *zap.Logger) (*HistoryManager, error) {
	if log == nil {
		log = zap.NewNop()
	}

	dbFileExists := true
	if _, err := os.Stat(dbFilePath); errors.Is(err, os.ErrNotExist) {
		dbFileExists = false
	} else if err != nil {
		return nil, fmt.Errorf("error checking history db: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening history db: %w", err)
	}

	m := &HistoryManager{
		db:            db,
		schemaVersion: filepath.Join(filepath.Dir(dbFilePath), "history_schema_version"),
		logger:        log,
	}

	if m.needsMigration(dbFileExists) {
		log.Debug("migrating history schema", zap.String("db", dbFilePath))
		if err := db.AutoMigrate(&HistoryEntry{}); err != nil {
			return nil, fmt.Errorf("error auto-migrating history schema: %w", err)
		}
		if err := os.WriteFile(m.schemaVersion, []byte(strconv.Itoa(historySchemaVersion)), 0644); err != nil {
			return nil, fmt.Errorf("error writing history schema version: %w", err)
		}
	}

	return m, nil
}

func (m *HistoryManager) needsMigration(dbFileExists bool) bool {
	if !dbFileExists {
		return true
	}

	versionMatches, err := m.schemaVersionMatches()
	if err != nil || !versionMatches {
		m.logger.Debug("history schema version check failed", zap.Error(err))
		return true
	}

	// The marker can outlive the table (manual deletion, corruption).
	return !m.db.Migrator().HasTable(&HistoryEntry{})
}

func (m *HistoryManager) schemaVersionMatches() (bool, error) {
	data, err := os.ReadFile(m.schemaVersion)
	if err != nil {
		return false, err
	}
	version, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, err
	}
	if version != historySchemaVersion {
		return false, fmt.Errorf("history schema version mismatch: got %d, want %d", version, historySchemaVersion)
	}
	return true, nil
}

// RecordCommand stores a finished command line.
func (m *HistoryManager) RecordCommand(command, directory string, exitCode int) (*HistoryEntry, error) {
	entry := HistoryEntry{
		Command:   command,
		Directory: directory,
		ExitCode:  sql.NullInt32{Int32: int32(exitCode), Valid: true},
	}

	if err := m.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// GetRecentCommandsByPrefix returns distinct command lines starting with
// prefix, most recently used first.
func (m *HistoryManager) GetRecentCommandsByPrefix(prefix string, limit int) ([]string, error) {
	var commands []string
	result := m.db.Model(&HistoryEntry{}).
		Where(`command LIKE ? ESCAPE '\'`, escapeLike(prefix)+"%").
		Group("command").
		Order("MAX(id) DESC").
		Limit(limit).
		Pluck("command", &commands)
	if result.Error != nil {
		return nil, result.Error
	}
	return commands, nil
}

func (m *HistoryManager) DeleteEntry(id uint) error {
	result := m.db.Delete(&HistoryEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no history entry found with id %d", id)
	}
	return nil
}

func (m *HistoryManager) ResetHistory() error {
	return m.db.Exec("DELETE FROM history_entries").Error
}

// Close releases the database handle.
func (m *HistoryManager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
