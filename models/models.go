package models

import (
	"time"

	"gorm.io/datatypes"
)

type Location struct {
	ID           uint     `gorm:"primaryKey;column:location_id" json:"location_id"`
	LocationName string   `gorm:"not null" json:"location_name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

func (Location) TableName() string { return "locations" }

type User struct {
	ID         uint      `gorm:"primaryKey;column:user_id" json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Username   string    `gorm:"size:255;not null;uniqueIndex" json:"username"`
	Email      string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Password   string    `gorm:"not null" json:"-"`
	FullName   *string   `json:"full_name"`
	Company    *string   `json:"company"`
	Profession *string   `json:"profession"`
}

func (User) TableName() string { return "users" }

type UploadedData struct {
	DataID     uint      `gorm:"primaryKey" json:"data_id"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       *User     `json:"-" gorm:"foreignKey:UserID;references:ID"`
	LocationID uint      `gorm:"not null;index" json:"location_id"`
	Location   *Location `json:"location,omitempty" gorm:"foreignKey:LocationID;references:ID"`
	Data       string    `gorm:"not null" json:"data"`
	ObjectKey  *string   `json:"object_key,omitempty"`
}

func (UploadedData) TableName() string { return "uploaded_data" }

type VisualisationData struct {
	VisualisationID uint          `gorm:"primaryKey;autoIncrement" json:"visualisation_id"`
	UploadID        uint          `gorm:"not null;uniqueIndex" json:"upload_id"`
	Upload          *UploadedData `json:"upload,omitempty" gorm:"foreignKey:UploadID;references:DataID"`
	LocationID      uint          `gorm:"not null;index" json:"location_id"`
	Location        *Location     `json:"location,omitempty" gorm:"foreignKey:LocationID;references:ID"`
	ForecastData    *string       `json:"forecast_data"`
}

func (VisualisationData) TableName() string { return "visualisation_data" }

// WaterQualityData is one day of aggregated measurements at a location.
// (location_id, date) identifies a record in practice but is not enforced.
type WaterQualityData struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	LocationID uint           `gorm:"not null;index" json:"location_id"`
	Location   *Location      `json:"location,omitempty" gorm:"foreignKey:LocationID;references:ID"`
	Date       datatypes.Date `gorm:"not null;index" json:"date"`

	SpecCondMax      *float64 `json:"spec_cond_max"`
	PhMax            *float64 `json:"ph_max"`
	PhMin            *float64 `json:"ph_min"`
	SpecCondMin      *float64 `json:"spec_cond_min"`
	SpecCondMean     *float64 `json:"spec_cond_mean"`
	DissolvedOxyMax  *float64 `json:"dissolved_oxy_max"`
	DissolvedOxyMean *float64 `json:"dissolved_oxy_mean"`
	DissolvedOxyMin  *float64 `json:"dissolved_oxy_min"`
	TempMean         *float64 `json:"temp_mean"`
	TempMin          *float64 `json:"temp_min"`
	TempMax          *float64 `json:"temp_max"`
	WaterQuality     *float64 `json:"water_quality"`
}

func (WaterQualityData) TableName() string { return "water_quality_data" }

// MeasurementFields lists the columns of WaterQualityData that clients may
// update. Names match both the JSON keys and the column names.
var MeasurementFields = []string{
	"spec_cond_max",
	"ph_max",
	"ph_min",
	"spec_cond_min",
	"spec_cond_mean",
	"dissolved_oxy_max",
	"dissolved_oxy_mean",
	"dissolved_oxy_min",
	"temp_mean",
	"temp_min",
	"temp_max",
	"water_quality",
}

// IsMeasurementField reports whether name is one of MeasurementFields.
func IsMeasurementField(name string) bool {
	for _, f := range MeasurementFields {
		if f == name {
			return true
		}
	}
	return false
}

// All returns every model in dependency order for migrations.
func All() []any {
	return []any{
		&Location{},
		&User{},
		&UploadedData{},
		&VisualisationData{},
		&WaterQualityData{},
	}
}
