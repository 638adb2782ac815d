package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Feature rows are immutable after insert. Position records the index of the
// feature in the uploaded document so exports can reproduce the input order.
type Feature struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primary_key" json:"id"`
	DatasetID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"dataset_id"`
	Position   int            `gorm:"not null" json:"position"`
	Geometry   Geometry       `gorm:"type:geometry(Geometry,4326);not null" json:"geometry"`
	Properties datatypes.JSON `gorm:"type:jsonb" json:"properties"`
	CreatedAt  time.Time      `json:"created_at"`
}
