package types

import (
	"time"

	"github.com/google/uuid"
)

// Measure is the top-level grouping of the reference questionnaire. Rows are
// created once per questionnaire version by the importer and never mutated.
type Measure struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	QuestionnaireVersionID uuid.UUID `gorm:"type:uuid;not null;index:idx_measure_version_code,unique" json:"questionnaire_version_id"`
	Code                   string    `gorm:"column:code;not null;index:idx_measure_version_code,unique" json:"code"`
	Name                   string    `gorm:"column:name;not null" json:"name"`
	OrderIndex             int       `gorm:"column:order_index;not null;default:0" json:"order_index"`
	CreatedAt              time.Time `gorm:"not null" json:"created_at"`
}

func (Measure) TableName() string { return "measure" }
