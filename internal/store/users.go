package store

import (
	"context"
	"fmt"

	"github.com/petermazzocco/water-quality-api/internal/apperrors"
	"github.com/petermazzocco/water-quality-api/models"
	"gorm.io/gorm"
)

// CreateUser inserts u. A taken username or email yields
// apperrors.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", u.Username, u.Email).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrAlreadyExists
		}
		return translate(tx.Create(u).Error)
	})
}

// UserByUsername resolves an identity claim to its user row.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// UpdateUser writes changes (column → value) to u and reloads it. An empty
// change set is a no-op.
func (s *Store) UpdateUser(ctx context.Context, u *models.User, changes map[string]any) error {
	if len(changes) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if email, ok := changes["email"]; ok {
			var count int64
			if err := tx.Model(&models.User{}).
				Where("email = ? AND user_id <> ?", email, u.ID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperrors.ErrAlreadyExists
			}
		}
		if err := tx.Model(u).Updates(changes).Error; err != nil {
			return translate(err)
		}
		return translate(tx.First(u, u.ID).Error)
	})
}

// DeleteUser removes the user together with the rows it owns: visualisations
// built from its uploads, then the uploads, then the user itself.
func (s *Store) DeleteUser(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		uploads := tx.Model(&models.UploadedData{}).Select("data_id").Where("user_id = ?", userID)
		if err := tx.Where("upload_id IN (?)", uploads).Delete(&models.VisualisationData{}).Error; err != nil {
			return fmt.Errorf("delete visualisations: %w", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.UploadedData{}).Error; err != nil {
			return fmt.Errorf("delete uploads: %w", err)
		}
		res := tx.Delete(&models.User{}, userID)
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		return nil
	})
}
