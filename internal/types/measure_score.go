package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MeasureScore is the versioned rollup of one measure. A measure passes only
// when every child submeasure passes overall.
type MeasureScore struct {
	ID                uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID      uuid.UUID                   `gorm:"type:uuid;not null;index:idx_ms_assessment_version" json:"assessment_id"`
	MeasureID         uuid.UUID                   `gorm:"type:uuid;not null" json:"measure_id"`
	MeasureCode       string                      `gorm:"column:measure_code;not null" json:"measure_code"`
	OverallScore      *float64                    `gorm:"column:overall_score" json:"overall_score,omitempty"`
	TotalSubmeasures  int                         `gorm:"column:total_submeasures;not null;default:0" json:"total_submeasures"`
	PassedSubmeasures int                         `gorm:"column:passed_submeasures;not null;default:0" json:"passed_submeasures"`
	PassesCompliance  bool                        `gorm:"column:passes_compliance;not null;default:false" json:"passes_compliance"`
	CriticalFailures  datatypes.JSONSlice[string] `gorm:"column:critical_failures" json:"critical_failures"`
	Version           int                         `gorm:"column:version;not null;index:idx_ms_assessment_version" json:"version"`
	IsCurrent         bool                        `gorm:"column:is_current;not null;default:false;index" json:"is_current"`
	CreatedAt         time.Time                   `gorm:"not null" json:"created_at"`
}

func (MeasureScore) TableName() string { return "measure_score" }
