package store

import (
	"context"
	"fmt"
	"time"

	"github.com/petermazzocco/water-quality-api/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func (s *Store) CreateWaterQuality(ctx context.Context, w *models.WaterQualityData) error {
	return translate(s.db.WithContext(ctx).Create(w).Error)
}

// WaterQuality returns the record of locationID on day. When several rows
// share the pair the lowest id wins.
func (s *Store) WaterQuality(ctx context.Context, locationID uint, day time.Time) (*models.WaterQualityData, error) {
	return waterQuality(s.db.WithContext(ctx), locationID, day)
}

func waterQuality(db *gorm.DB, locationID uint, day time.Time) (*models.WaterQualityData, error) {
	var w models.WaterQualityData
	err := db.Where("location_id = ? AND date = ?", locationID, datatypes.Date(day)).
		Order("id").
		First(&w).Error
	if err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

// UpdateWaterQuality applies changes (measurement column → value, nil for
// NULL) to the record of locationID on day inside one transaction and
// returns the stored record. Columns missing from changes keep their value.
func (s *Store) UpdateWaterQuality(ctx context.Context, locationID uint, day time.Time, changes map[string]any) (*models.WaterQualityData, error) {
	for col := range changes {
		if !models.IsMeasurementField(col) {
			return nil, fmt.Errorf("column %q is not a measurement field", col)
		}
	}

	var out *models.WaterQualityData
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := waterQuality(tx, locationID, day)
		if err != nil {
			return err
		}
		if len(changes) > 0 {
			if err := tx.Model(w).Updates(changes).Error; err != nil {
				return err
			}
			if err := tx.First(w, w.ID).Error; err != nil {
				return translate(err)
			}
		}
		out = w
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WaterQualityForLocation lists every record of locationID ordered by date.
func (s *Store) WaterQualityForLocation(ctx context.Context, locationID uint) ([]models.WaterQualityData, error) {
	var records []models.WaterQualityData
	err := s.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("date, id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
