package db

import (
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Keys held by the store.
const (
	KeyModpacks = "modpacks"
	KeyCurrent  = "current"
	KeyCache    = "cache"
	KeyTheme    = "theme"
)

// Entry is one JSON value in the key-value table.
type Entry struct {
	Key       string `gorm:"primaryKey;column:entry_key"`
	Value     string
	UpdatedAt time.Time
}

// Store is a small key-value store on top of SQLite.
type Store struct {
	DB *gorm.DB
}

// Open initializes the SQLite database connection and migrates the schema.
func Open(dbPath string, log *zap.SugaredLogger) (*Store, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	newLogger := gormlogger.New(
		zap.NewStdLog(log.Desugar()),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(gormlite.Open(dbPath), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := conn.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	log.Infow("Database initialized", zap.String("path", dbPath))
	return &Store{DB: conn}, nil
}

// Get returns the raw JSON stored under each key. Unknown keys are omitted.
func (s *Store) Get(keys ...string) (map[string]json.RawMessage, error) {
	var entries []Entry
	if err := s.DB.Where("entry_key IN ?", keys).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to read keys %v: %w", keys, err)
	}
	values := make(map[string]json.RawMessage, len(entries))
	for _, e := range entries {
		values[e.Key] = json.RawMessage(e.Value)
	}
	return values, nil
}

// Set stores every value as JSON in a single transaction.
func (s *Store) Set(values map[string]any) error {
	entries := make([]Entry, 0, len(values))
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode value for %q: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: string(raw), UpdatedAt: time.Now()})
	}
	if len(entries) == 0 {
		return nil
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entries).Error
	if err != nil {
		return fmt.Errorf("failed to write keys: %w", err)
	}
	return nil
}

// Remove deletes the given keys.
func (s *Store) Remove(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.DB.Where("entry_key IN ?", keys).Delete(&Entry{}).Error; err != nil {
		return fmt.Errorf("failed to remove keys %v: %w", keys, err)
	}
	return nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
