// Package submission turns a respondent's answer map into the wire payload,
// stores it durably and feeds the event pipeline.
package submission

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Answer is one entry of the assembled payload. Only modules the respondent
// actually answered appear; never-visited modules are omitted, not null.
type Answer struct {
	QuestionID   string `json:"questionId"`
	QuestionType string `json:"questionType"`
	Value        any    `json:"value"`
}

// Metadata carries the client-observable context captured at submit time.
type Metadata struct {
	DeviceClass string `json:"deviceClass"`
	Language    string `json:"language,omitempty"`
	UserAgent   string `json:"userAgent,omitempty"`
}

// Submission is the assembled wire payload for one completed response.
type Submission struct {
	FormID           string   `json:"formId"`
	RespondentID     string   `json:"respondentId,omitempty"`
	CompletionTimeMs int64    `json:"completionTimeMs"`
	Answers          []Answer `json:"answers"`
	Metadata         Metadata `json:"metadata"`
}

// Record is the relational shape of a stored submission.
type Record struct {
	ID               string            `json:"id" gorm:"type:uuid;primaryKey"`
	FormID           string            `json:"formId" gorm:"type:uuid;not null;index"`
	RespondentID     string            `json:"respondentId" gorm:"index"`
	CompletionTimeMs int64             `json:"completionTimeMs"`
	Answers          datatypes.JSON    `json:"answers" gorm:"type:jsonb"`
	Metadata         datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// TableName pins the submissions table name.
func (Record) TableName() string { return "form_submissions" }

// BeforeCreate assigns identity on new records.
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// FormStats keeps per-form response counters maintained by the worker.
type FormStats struct {
	FormID    string    `json:"formId" gorm:"type:uuid;primaryKey"`
	Responses int64     `json:"responses" gorm:"not null;default:0"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName pins the stats table name.
func (FormStats) TableName() string { return "form_stats" }
