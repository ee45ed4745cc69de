package models

import (
	"time"

	"gorm.io/datatypes"
)

// SessionSnapshot is a persisted checkpoint of a session's grading state:
// the rubric scheme, the nested rubric item mapping, and the grading
// metadata, serialized with string keys throughout.
type SessionSnapshot struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	SessionID string         `gorm:"size:64;not null;index" json:"session_id"`
	State     datatypes.JSON `gorm:"not null" json:"state"`
	CreatedAt time.Time      `json:"created_at"`
	Session   GradingSession `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
