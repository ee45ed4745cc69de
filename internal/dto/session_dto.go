package dto

import (
	"time"

	"github.com/markdesk/markdesk-api/internal/models"
)

// SessionCreateRequest opens a new grading session.
type SessionCreateRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Total int    `json:"total" validate:"omitempty,min=1"`
}

// SessionResponse is the serialized representation of a grading session.
type SessionResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	GraderID  string    `json:"grader_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionResponse converts a session model into a DTO.
func NewSessionResponse(session models.GradingSession) SessionResponse {
	return SessionResponse{
		ID:        session.ID,
		Name:      session.Name,
		GraderID:  session.GraderID,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

// NewSessionResponseSlice converts a slice of sessions into DTOs.
func NewSessionResponseSlice(sessions []models.GradingSession) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, NewSessionResponse(session))
	}
	return out
}

// SnapshotResponse acknowledges a persisted checkpoint.
type SnapshotResponse struct {
	ID        uint      `json:"id"`
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSnapshotResponse converts a snapshot model into a DTO.
func NewSnapshotResponse(snapshot models.SessionSnapshot) SnapshotResponse {
	return SnapshotResponse{
		ID:        snapshot.ID,
		SessionID: snapshot.SessionID,
		CreatedAt: snapshot.CreatedAt,
	}
}
