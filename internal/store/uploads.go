package store

import (
	"context"

	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/petermazzocco/water-quality-api/models"
	"gorm.io/gorm"
)

// RecordUpload inserts u and, when forecast is not nil, the visualisation
// row derived from it, in one transaction.
func (s *Store) RecordUpload(ctx context.Context, u *models.UploadedData, forecast *string) (*models.VisualisationData, error) {
	var v *models.VisualisationData
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return translate(err)
		}
		if forecast == nil {
			return nil
		}
		v = &models.VisualisationData{
			UploadID:     u.DataID,
			LocationID:   u.LocationID,
			ForecastData: forecast,
		}
		return translate(tx.Create(v).Error)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// UploadByID returns upload dataID if it belongs to userID.
func (s *Store) UploadByID(ctx context.Context, userID, dataID uint) (*models.UploadedData, error) {
	var u models.UploadedData
	err := s.db.WithContext(ctx).
		Where("data_id = ? AND user_id = ?", dataID, userID).
		First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UploadsForUser lists the uploads owned by userID, newest first.
func (s *Store) UploadsForUser(ctx context.Context, userID uint) ([]models.UploadedData, error) {
	var uploads []models.UploadedData
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("data_id DESC").
		Find(&uploads).Error
	if err != nil {
		return nil, err
	}
	return uploads, nil
}

// VisualisationForUpload returns the visualisation built from uploadID.
func (s *Store) VisualisationForUpload(ctx context.Context, uploadID uint) (*models.VisualisationData, error) {
	var v models.VisualisationData
	if err := s.db.WithContext(ctx).Where("upload_id = ?", uploadID).First(&v).Error; err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

// SetUploadObjectKey records where the archived copy of upload dataID lives.
func (s *Store) SetUploadObjectKey(ctx context.Context, dataID uint, key string) error {
	res := s.db.WithContext(ctx).
		Model(&models.UploadedData{}).
		Where("data_id = ?", dataID).
		Update("object_key", key)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
