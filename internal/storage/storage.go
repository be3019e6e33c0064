package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"collab-editor/internal/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned by Load when no record exists for a document
var ErrNotFound = errors.New("document record not found")

// Store is the narrow persistence collaborator the collaboration core
// flushes to and loads from. Load failures of any kind are treated by the
// core as "not found".
type Store interface {
	Load(ctx context.Context, documentID string) (content string, updatedAt time.Time, err error)
	Save(ctx context.Context, documentID, content string) error
}

// DocumentRecord is the durable copy of a document's text
type DocumentRecord struct {
	ID        string `gorm:"primaryKey"`
	Path      string
	Content   string
	UpdatedAt time.Time
}

// ConnectDb opens the Postgres connection using the loaded configuration
func ConnectDb() (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
		config.AppConfig.DBHost,
		config.AppConfig.DBUser,
		config.AppConfig.DBPassword,
		config.AppConfig.DBName,
		config.AppConfig.DBPort,
	)

	level := logger.Info
	if config.AppConfig.Environment == "production" {
		level = logger.Error
	}
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold: time.Second,
			LogLevel:      level,
			Colorful:      true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: newLogger})
	if err != nil {
		return nil, err
	}

	log.Println("Success connecting to db")
	return db, nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&DocumentRecord{}); err != nil {
		log.Fatal(err)
	}

	log.Println("Database schema migrated successfully")
}

type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates the Postgres-backed store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Load(ctx context.Context, documentID string) (string, time.Time, error) {
	var record DocumentRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", documentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", time.Time{}, ErrNotFound
		}
		return "", time.Time{}, err
	}
	return record.Content, record.UpdatedAt, nil
}

func (s *GormStore) Save(ctx context.Context, documentID, content string) error {
	record := DocumentRecord{
		ID:        documentID,
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "updated_at"}),
		}).
		Create(&record).Error
}
