package types

import (
	"time"

	"github.com/google/uuid"
)

// Submeasure belongs to exactly one Measure. (measure_id, code) is unique.
type Submeasure struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MeasureID  uuid.UUID `gorm:"type:uuid;not null;index:idx_submeasure_measure_code,unique" json:"measure_id"`
	Measure    *Measure  `gorm:"constraint:OnDelete:CASCADE;foreignKey:MeasureID;references:ID" json:"measure,omitempty"`
	Code       string    `gorm:"column:code;not null;index:idx_submeasure_measure_code,unique" json:"code"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	OrderIndex int       `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
}

func (Submeasure) TableName() string { return "submeasure" }
