package types

import (
	"time"

	"github.com/google/uuid"
)

// ControlScoreHistory is the per-(control, submeasure) resolution captured at
// each scoring run. Append-only; exactly one row per
// (assessment, control, submeasure) has is_current=true.
type ControlScoreHistory struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID        uuid.UUID `gorm:"type:uuid;not null;index:idx_csh_assessment_version" json:"assessment_id"`
	ControlID           uuid.UUID `gorm:"type:uuid;not null" json:"control_id"`
	SubmeasureID        uuid.UUID `gorm:"type:uuid;not null" json:"submeasure_id"`
	ControlCode         string    `gorm:"column:control_code;not null" json:"control_code"`
	DocumentationScore  *int      `gorm:"column:documentation_score" json:"documentation_score,omitempty"`
	ImplementationScore *int      `gorm:"column:implementation_score" json:"implementation_score,omitempty"`
	Score               *float64  `gorm:"column:score" json:"score,omitempty"`
	MeetsRequirement    bool      `gorm:"column:meets_requirement;not null;default:false" json:"meets_requirement"`
	IsMandatory         bool      `gorm:"column:is_mandatory;not null;default:false" json:"is_mandatory"`
	MinimumRequired     *float64  `gorm:"column:minimum_required" json:"minimum_required,omitempty"`
	Version             int       `gorm:"column:version;not null;index:idx_csh_assessment_version" json:"version"`
	IsCurrent           bool      `gorm:"column:is_current;not null;default:false;index" json:"is_current"`
	CreatedAt           time.Time `gorm:"not null" json:"created_at"`
}

func (ControlScoreHistory) TableName() string { return "control_score_history" }
