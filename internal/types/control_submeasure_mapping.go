package types

import (
	"time"

	"github.com/google/uuid"
)

// ControlSubmeasureMapping is the M:N join between controls and submeasures.
// At most one mapping exists per (control, submeasure) pair.
type ControlSubmeasureMapping struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	ControlID    uuid.UUID   `gorm:"type:uuid;not null;index:idx_mapping_control_submeasure,unique" json:"control_id"`
	Control      *Control    `gorm:"constraint:OnDelete:CASCADE;foreignKey:ControlID;references:ID" json:"control,omitempty"`
	SubmeasureID uuid.UUID   `gorm:"type:uuid;not null;index:idx_mapping_control_submeasure,unique" json:"submeasure_id"`
	Submeasure   *Submeasure `gorm:"constraint:OnDelete:CASCADE;foreignKey:SubmeasureID;references:ID" json:"submeasure,omitempty"`
	OrderIndex   int         `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
}

func (ControlSubmeasureMapping) TableName() string { return "control_submeasure_mapping" }
