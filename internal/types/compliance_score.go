package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ComplianceScore is the assessment-wide verdict. One row per version; the
// single is_current row is what downstream consumers read by default.
type ComplianceScore struct {
	ID                   uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID         uuid.UUID                   `gorm:"type:uuid;not null;index:idx_cs_assessment_version,unique" json:"assessment_id"`
	OverallScore         *float64                    `gorm:"column:overall_score" json:"overall_score,omitempty"`
	CompliancePercentage float64                     `gorm:"column:compliance_percentage;not null;default:0" json:"compliance_percentage"`
	ComplianceGrade      string                      `gorm:"column:compliance_grade;not null" json:"compliance_grade"`
	IsCompliant          bool                        `gorm:"column:is_compliant;not null;default:false" json:"is_compliant"`
	TotalMeasures        int                         `gorm:"column:total_measures;not null;default:0" json:"total_measures"`
	PassedMeasures       int                         `gorm:"column:passed_measures;not null;default:0" json:"passed_measures"`
	HighRiskAreas        datatypes.JSONSlice[string] `gorm:"column:high_risk_areas" json:"high_risk_areas"`
	Version              int                         `gorm:"column:version;not null;index:idx_cs_assessment_version,unique" json:"version"`
	IsCurrent            bool                        `gorm:"column:is_current;not null;default:false;index" json:"is_current"`
	CreatedAt            time.Time                   `gorm:"not null" json:"created_at"`
}

func (ComplianceScore) TableName() string { return "compliance_score" }
