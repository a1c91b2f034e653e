package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SubmeasureScore is the versioned rollup of one submeasure within an
// assessment. Averages use answered controls only; unanswered controls are
// excluded from the mean, not treated as zero.
type SubmeasureScore struct {
	ID                        uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID              uuid.UUID                   `gorm:"type:uuid;not null;index:idx_sms_assessment_version" json:"assessment_id"`
	SubmeasureID              uuid.UUID                   `gorm:"type:uuid;not null" json:"submeasure_id"`
	SubmeasureCode            string                      `gorm:"column:submeasure_code;not null" json:"submeasure_code"`
	DocumentationAvg          *float64                    `gorm:"column:documentation_avg" json:"documentation_avg,omitempty"`
	ImplementationAvg         *float64                    `gorm:"column:implementation_avg" json:"implementation_avg,omitempty"`
	OverallScore              *float64                    `gorm:"column:overall_score" json:"overall_score,omitempty"`
	TotalControls             int                         `gorm:"column:total_controls;not null;default:0" json:"total_controls"`
	AnsweredControls          int                         `gorm:"column:answered_controls;not null;default:0" json:"answered_controls"`
	PassesIndividualThreshold bool                        `gorm:"column:passes_individual_threshold;not null;default:false" json:"passes_individual_threshold"`
	PassesAverageThreshold    bool                        `gorm:"column:passes_average_threshold;not null;default:false" json:"passes_average_threshold"`
	PassesOverall             bool                        `gorm:"column:passes_overall;not null;default:false" json:"passes_overall"`
	FailedControls            datatypes.JSONSlice[string] `gorm:"column:failed_controls" json:"failed_controls"`
	Version                   int                         `gorm:"column:version;not null;index:idx_sms_assessment_version" json:"version"`
	IsCurrent                 bool                        `gorm:"column:is_current;not null;default:false;index" json:"is_current"`
	CreatedAt                 time.Time                   `gorm:"not null" json:"created_at"`
}

func (SubmeasureScore) TableName() string { return "submeasure_score" }
