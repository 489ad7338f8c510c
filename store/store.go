// Package store persists generated code keyed to the owning user.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/models"
	"gorm.io/gorm"
)

// Store is the durable record of generation events. Every read is scoped by owner.
type Store interface {
	Save(ctx context.Context, userID uint, originalFilename string, outputType models.OutputType, code string) (*models.GeneratedCode, error)
	ListForUser(ctx context.Context, userID uint) ([]models.GeneratedCode, error)
	GetByIDForUser(ctx context.Context, id string, userID uint) (*models.GeneratedCode, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Save(ctx context.Context, userID uint, originalFilename string, outputType models.OutputType, code string) (*models.GeneratedCode, error) {
	record := models.GeneratedCode{
		UserID:        userID,
		OriginalImage: originalFilename,
	}
	record.SetCode(outputType, code)

	if err := s.db.WithContext(ctx).Omit("User").Create(&record).Error; err != nil {
		return nil, apperror.New(apperror.PersistenceFailure, "store.save", err)
	}

	return &record, nil
}

func (s *GormStore) ListForUser(ctx context.Context, userID uint) ([]models.GeneratedCode, error) {
	records := []models.GeneratedCode{}

	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, apperror.New(apperror.PersistenceFailure, "store.list", err)
	}

	return records, nil
}

func (s *GormStore) GetByIDForUser(ctx context.Context, id string, userID uint) (*models.GeneratedCode, error) {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.New(apperror.NotFound, "store.get", err)
	}

	var record models.GeneratedCode
	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", recordID, userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(apperror.NotFound, "store.get", err)
		}
		return nil, apperror.New(apperror.PersistenceFailure, "store.get", err)
	}

	return &record, nil
}
