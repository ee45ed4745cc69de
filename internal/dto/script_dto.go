package dto

import (
	"time"

	"github.com/markdesk/markdesk-api/internal/models"
)

// ScriptResponse is the serialized representation of an uploaded script.
type ScriptResponse struct {
	FileKey    string    `json:"file_key"`
	Name       string    `json:"name"`
	StudentNum string    `json:"student_num"`
	PageCount  int       `json:"page_count"`
	StorageURL string    `json:"storage_url,omitempty"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewScriptResponse converts a script model into a DTO.
func NewScriptResponse(script models.Script) ScriptResponse {
	return ScriptResponse{
		FileKey:    script.FileKey,
		Name:       script.Name,
		StudentNum: script.StudentNum,
		PageCount:  script.PageCount,
		StorageURL: script.StorageURL,
		Completed:  script.Completed,
		CreatedAt:  script.CreatedAt,
	}
}

// NewScriptResponseSlice converts a slice of scripts into DTOs.
func NewScriptResponseSlice(scripts []models.Script) []ScriptResponse {
	out := make([]ScriptResponse, 0, len(scripts))
	for _, script := range scripts {
		out = append(out, NewScriptResponse(script))
	}
	return out
}
