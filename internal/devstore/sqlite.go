package devstore

import (
	"context"
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/recdeck/recdeck/internal/errors"
	"github.com/recdeck/recdeck/internal/record"
)

// recordModel is the database shape of a record. The wire-format field names
// live in the JSON tags of record.Record; the table uses conventional column
// names.
type recordModel struct {
	ID         int    `gorm:"primaryKey;column:id"`
	ExternalID int    `gorm:"column:external_id"`
	Rating     int    `gorm:"column:rating"`
	Status     string `gorm:"column:status"`
}

func (recordModel) TableName() string { return "records" }

func toModel(rec record.Record) recordModel {
	return recordModel{
		ID:         rec.ID,
		ExternalID: rec.ExternalID,
		Rating:     rec.Rating,
		Status:     rec.Status,
	}
}

func (m recordModel) toRecord() record.Record {
	return record.Record{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Rating:     m.Rating,
		Status:     m.Status,
	}
}

// SQLiteStore persists the collection in a sqlite database file. The path
// ":memory:" yields a private in-memory database.
type SQLiteStore struct {
	path string
	db   *gorm.DB
}

// NewSQLiteStore creates a store for the given database path. Open must be
// called before use.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Open() error {
	db, err := gorm.Open(sqlite.Open(s.path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return apperrors.New(err).
			Category(apperrors.CategoryDatabase).
			Component("devstore").
			Context("database", s.path).
			Build()
	}
	if err := db.AutoMigrate(&recordModel{}); err != nil {
		return apperrors.New(err).
			Category(apperrors.CategoryDatabase).
			Component("devstore").
			Context("database", s.path).
			Build()
	}
	s.db = db
	logger.Info("sqlite store opened", "database", s.path)
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLiteStore) All(ctx context.Context) ([]record.Record, error) {
	var models []recordModel
	if err := s.db.WithContext(ctx).Order("id").Find(&models).Error; err != nil {
		return nil, s.dbError(err)
	}
	out := make([]record.Record, len(models))
	for i, m := range models {
		out[i] = m.toRecord()
	}
	return out, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec record.Record) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&recordModel{}).
		Where("id = ?", rec.ID).Count(&count).Error; err != nil {
		return s.dbError(err)
	}
	if count > 0 {
		return errDuplicateID(rec.ID)
	}
	m := toModel(rec)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return s.dbError(err)
	}
	return nil
}

func (s *SQLiteStore) Replace(ctx context.Context, id int, rec record.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing recordModel
		if err := tx.First(&existing, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errNoSuchRecord(id)
			}
			return s.dbError(err)
		}
		// Replace may move the record to a new primary key.
		if err := tx.Delete(&recordModel{}, "id = ?", id).Error; err != nil {
			return s.dbError(err)
		}
		m := toModel(rec)
		if err := tx.Create(&m).Error; err != nil {
			return s.dbError(err)
		}
		return nil
	})
}

func (s *SQLiteStore) Remove(ctx context.Context, id int) error {
	result := s.db.WithContext(ctx).Delete(&recordModel{}, "id = ?", id)
	if result.Error != nil {
		return s.dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return errNoSuchRecord(id)
	}
	return nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&recordModel{}).Count(&count).Error; err != nil {
		return 0, s.dbError(err)
	}
	return int(count), nil
}

func (s *SQLiteStore) dbError(err error) error {
	return apperrors.New(err).
		Category(apperrors.CategoryDatabase).
		Component("devstore").
		Context("database", s.path).
		Build()
}
