package models

import "time"

// GradingSession is one marking sitting: a rubric scheme plus the scripts
// uploaded against it. The live grading state is held in memory and
// checkpointed into SessionSnapshot rows.
type GradingSession struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	GraderID  string    `gorm:"size:64" json:"grader_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
