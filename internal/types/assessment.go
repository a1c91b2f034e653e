package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assessment is one organization's run through the questionnaire at a chosen
// security level.
type Assessment struct {
	ID                     uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrganizationID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"organization_id"`
	QuestionnaireVersionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"questionnaire_version_id"`
	SecurityLevel          SecurityLevel  `gorm:"column:security_level;not null" json:"security_level"`
	Name                   string         `gorm:"column:name;not null" json:"name"`
	CreatedAt              time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assessment) TableName() string { return "assessment" }
