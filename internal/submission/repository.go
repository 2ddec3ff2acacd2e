package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Store handles persistence of submissions and per-form counters.
type Store interface {
	Create(ctx context.Context, rec *Record) error
	ListByForm(ctx context.Context, formID string) ([]Record, error)
	IncrementResponses(ctx context.Context, formID string) error
	Stats(ctx context.Context, formID string) (FormStats, error)
}

// GormStore persists submissions via GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a store backed by the provided DB connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// ToRecord encodes an assembled submission for storage.
func ToRecord(sub Submission) (*Record, error) {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return nil, fmt.Errorf("submission: encode answers: %w", err)
	}

	return &Record{
		FormID:           sub.FormID,
		RespondentID:     sub.RespondentID,
		CompletionTimeMs: sub.CompletionTimeMs,
		Answers:          datatypes.JSON(answers),
		Metadata: datatypes.JSONMap{
			"deviceClass": sub.Metadata.DeviceClass,
			"language":    sub.Metadata.Language,
			"userAgent":   sub.Metadata.UserAgent,
		},
	}, nil
}

// Create inserts a new submission record.
func (s *GormStore) Create(ctx context.Context, rec *Record) error {
	return s.db.WithContext(ctx).Create(rec).Error
}

// ListByForm returns a form's submissions, newest first.
func (s *GormStore) ListByForm(ctx context.Context, formID string) ([]Record, error) {
	var records []Record
	err := s.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// IncrementResponses bumps the per-form response counter, creating the row
// on first use.
func (s *GormStore) IncrementResponses(ctx context.Context, formID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stats FormStats
		err := tx.First(&stats, "form_id = ?", formID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(&FormStats{FormID: formID, Responses: 1}).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&FormStats{}).
			Where("form_id = ?", formID).
			UpdateColumn("responses", gorm.Expr("responses + 1")).Error
	})
}

// Stats returns the counter row for a form, zero-valued when absent.
func (s *GormStore) Stats(ctx context.Context, formID string) (FormStats, error) {
	var stats FormStats
	err := s.db.WithContext(ctx).First(&stats, "form_id = ?", formID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return FormStats{FormID: formID}, nil
	}
	if err != nil {
		return FormStats{}, err
	}
	return stats, nil
}
