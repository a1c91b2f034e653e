package types

import (
	"time"

	"github.com/google/uuid"
)

// ControlRequirement is the per-context, per-level rule for a mapped control.
// It is the only place minimum-score thresholds live; the Control entity
// itself carries none. Unique per (control, submeasure, level).
type ControlRequirement struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ControlID    uuid.UUID     `gorm:"type:uuid;not null;index:idx_requirement_control_submeasure_level,unique" json:"control_id"`
	Control      *Control      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ControlID;references:ID" json:"control,omitempty"`
	SubmeasureID uuid.UUID     `gorm:"type:uuid;not null;index:idx_requirement_control_submeasure_level,unique" json:"submeasure_id"`
	Submeasure   *Submeasure   `gorm:"constraint:OnDelete:CASCADE;foreignKey:SubmeasureID;references:ID" json:"submeasure,omitempty"`
	Level        SecurityLevel `gorm:"column:level;not null;index:idx_requirement_control_submeasure_level,unique" json:"level"`
	IsMandatory  bool          `gorm:"column:is_mandatory;not null;default:false" json:"is_mandatory"`
	// No column default: gorm would skip a zero-valued field that carries one
	// and a false here must reach the database.
	IsApplicable bool          `gorm:"column:is_applicable;not null" json:"is_applicable"`
	MinimumScore *float64      `gorm:"column:minimum_score" json:"minimum_score,omitempty"`
	CreatedAt    time.Time     `gorm:"not null" json:"created_at"`
}

func (ControlRequirement) TableName() string { return "control_requirement" }
