package store

import (
	"context"

	"github.com/petermazzocco/water-quality-api/models"
)

func (s *Store) CreateLocation(ctx context.Context, l *models.Location) error {
	return translate(s.db.WithContext(ctx).Create(l).Error)
}

// LocationByID returns apperrors.ErrNotFound for an unknown id.
func (s *Store) LocationByID(ctx context.Context, id uint) (*models.Location, error) {
	var l models.Location
	if err := s.db.WithContext(ctx).First(&l, id).Error; err != nil {
		return nil, translate(err)
	}
	return &l, nil
}

func (s *Store) ListLocations(ctx context.Context) ([]models.Location, error) {
	var locations []models.Location
	if err := s.db.WithContext(ctx).Order("location_id").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}
