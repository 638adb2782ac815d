package entity

import (
	"time"

	"github.com/google/uuid"
)

type Dataset struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Description   string    `gorm:"type:text" json:"description"`
	UploadedAt    time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
	FeatureCount  int       `gorm:"not null;default:0" json:"feature_count"`
	Bounds        Geometry  `gorm:"type:geometry(Geometry,4326)" json:"bounds"`
	FileSizeBytes int64     `gorm:"type:bigint" json:"file_size_bytes"`
	Features      []Feature `gorm:"foreignKey:DatasetID;constraint:OnDelete:CASCADE" json:"-"`
}
