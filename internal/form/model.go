// Package form owns the form entity: metadata, publish status, respondent
// settings and the view counter.
package form

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// StatusDraft marks a form still being edited.
	StatusDraft = "draft"
	// StatusPublished marks a form accepting responses.
	StatusPublished = "published"
	// StatusClosed marks a form no longer accepting responses.
	StatusClosed = "closed"
)

// IsValidStatus reports whether the given status is part of the lifecycle.
func IsValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPublished, StatusClosed:
		return true
	default:
		return false
	}
}

// Settings captures respondent-facing behaviour switches.
type Settings struct {
	AllowMultipleSubmissions bool   `json:"allowMultipleSubmissions"`
	ShowProgressBar          bool   `json:"showProgressBar"`
	Password                 string `json:"password,omitempty"`
}

// Form represents a persisted form definition.
type Form struct {
	ID          string            `json:"id" gorm:"type:uuid;primaryKey"`
	OwnerID     string            `json:"ownerId" gorm:"type:uuid;index"`
	Title       string            `json:"title" gorm:"not null"`
	Description string            `json:"description"`
	Status      string            `json:"status" gorm:"not null;default:'draft';index"`
	Settings    datatypes.JSONMap `json:"settings" gorm:"type:jsonb"`
	Styling     datatypes.JSONMap `json:"styling" gorm:"type:jsonb"`
	Views       int64             `json:"views" gorm:"not null;default:0"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// BeforeCreate ensures identity and status defaults on new records.
func (f *Form) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.Status == "" {
		f.Status = StatusDraft
	}
	return nil
}

// RuntimeSettings decodes the settings column into its typed shape.
func (f Form) RuntimeSettings() Settings {
	s := Settings{}
	if f.Settings == nil {
		return s
	}
	if v, ok := f.Settings["allowMultipleSubmissions"].(bool); ok {
		s.AllowMultipleSubmissions = v
	}
	if v, ok := f.Settings["showProgressBar"].(bool); ok {
		s.ShowProgressBar = v
	}
	if v, ok := f.Settings["password"].(string); ok {
		s.Password = v
	}
	return s
}

// ToDTO converts the model into a response-friendly structure.
func (f Form) ToDTO() map[string]any {
	settings := map[string]any{}
	if f.Settings != nil {
		settings = map[string]any(f.Settings)
	}
	styling := map[string]any{}
	if f.Styling != nil {
		styling = map[string]any(f.Styling)
	}

	return map[string]any{
		"id":          f.ID,
		"ownerId":     f.OwnerID,
		"title":       f.Title,
		"description": f.Description,
		"status":      f.Status,
		"settings":    settings,
		"styling":     styling,
		"views":       f.Views,
		"createdAt":   f.CreatedAt,
		"updatedAt":   f.UpdatedAt,
	}
}
