package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AssessmentAnswer is the only user-mutable input of the scoring engine. One
// row per (assessment, control, submeasure); answering the same control inside
// two submeasures produces two independent rows.
type AssessmentAnswer struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_answer_assessment_control_submeasure,unique" json:"assessment_id"`
	Assessment          *Assessment    `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssessmentID;references:ID" json:"assessment,omitempty"`
	ControlID           uuid.UUID      `gorm:"type:uuid;not null;index:idx_answer_assessment_control_submeasure,unique" json:"control_id"`
	Control             *Control       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ControlID;references:ID" json:"control,omitempty"`
	SubmeasureID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_answer_assessment_control_submeasure,unique" json:"submeasure_id"`
	Submeasure          *Submeasure    `gorm:"constraint:OnDelete:CASCADE;foreignKey:SubmeasureID;references:ID" json:"submeasure,omitempty"`
	DocumentationScore  *int           `gorm:"column:documentation_score" json:"documentation_score,omitempty"`
	ImplementationScore *int           `gorm:"column:implementation_score" json:"implementation_score,omitempty"`
	Comment             string         `gorm:"column:comment" json:"comment,omitempty"`
	EvidenceRefs        datatypes.JSON `gorm:"type:jsonb;column:evidence_refs" json:"evidence_refs,omitempty"`
	AnsweredBy          uuid.UUID      `gorm:"type:uuid;column:answered_by" json:"answered_by"`
	CreatedAt           time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (AssessmentAnswer) TableName() string { return "assessment_answer" }

// Answered reports whether both scores are set. A half-filled answer does not
// count as answered anywhere in completion or scoring.
func (a *AssessmentAnswer) Answered() bool {
	return a != nil && a.DocumentationScore != nil && a.ImplementationScore != nil
}
