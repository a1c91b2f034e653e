package types

import (
	"time"

	"github.com/google/uuid"
)

// Control is a reusable requirement definition. Its identity is independent of
// where it is used; the same control can be mapped into several submeasures,
// each mapping being a distinct obligation.
type Control struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code        string    `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (Control) TableName() string { return "control" }
