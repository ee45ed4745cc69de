package models

import "time"

// Script is one uploaded exam script (a PDF). FileKey is the string
// identifier the grading index uses for this script; it is assigned at
// upload time and never changes.
type Script struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	SessionID  string         `gorm:"size:64;not null;uniqueIndex:idx_session_file" json:"session_id"`
	FileKey    string         `gorm:"size:32;not null;uniqueIndex:idx_session_file" json:"file_key"`
	Name       string         `gorm:"size:512;not null" json:"name"`
	StudentNum string         `gorm:"size:32" json:"student_num"`
	PageCount  int            `gorm:"not null" json:"page_count"`
	StorageURL string         `gorm:"size:1024" json:"storage_url"`
	Contents   []byte         `gorm:"type:bytes" json:"-"`
	Completed  bool           `gorm:"not null;default:false" json:"completed"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Session    GradingSession `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
