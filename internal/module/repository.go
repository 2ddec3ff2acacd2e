package module

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record is the relational shape of a module. The server assigns ID on first
// save; ClientID stays the primary identity for all in-session logic.
type Record struct {
	ID          string         `json:"serverId" gorm:"type:uuid;primaryKey"`
	FormID      string         `json:"formId" gorm:"type:uuid;not null;index:idx_module_form"`
	ClientID    string         `json:"id" gorm:"type:uuid;not null;index:idx_module_client"`
	Type        string         `json:"type" gorm:"not null"`
	Position    int            `json:"order" gorm:"column:position;not null"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Placeholder string         `json:"placeholder"`
	IsRequired  bool           `json:"isRequired"`
	Options     datatypes.JSON `json:"options" gorm:"type:jsonb"`
	Extra       datatypes.JSON `json:"extra" gorm:"type:jsonb"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// TableName keeps the table clear of the reserved word "order".
func (Record) TableName() string { return "form_modules" }

// BeforeCreate assigns the durable identity when missing.
func (r *Record) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type recordExtra struct {
	ButtonText   string `json:"buttonText,omitempty"`
	Message      string `json:"message,omitempty"`
	ShowConfetti bool   `json:"showConfetti,omitempty"`
}

// ToRecord converts an in-memory module to its relational shape.
func ToRecord(formID string, m Module) (Record, error) {
	rec := Record{
		ID:          m.ServerID,
		FormID:      formID,
		ClientID:    m.ClientID,
		Type:        string(m.Type),
		Position:    m.Order,
		Title:       m.Title,
		Description: m.Description,
		Placeholder: m.Placeholder,
		IsRequired:  m.IsRequired,
	}

	if len(m.Options) > 0 {
		raw, err := json.Marshal(m.Options)
		if err != nil {
			return Record{}, fmt.Errorf("module: encode options: %w", err)
		}
		rec.Options = datatypes.JSON(raw)
	}

	extra := recordExtra{ButtonText: m.ButtonText, Message: m.Message, ShowConfetti: m.ShowConfetti}
	if extra != (recordExtra{}) {
		raw, err := json.Marshal(extra)
		if err != nil {
			return Record{}, fmt.Errorf("module: encode extra: %w", err)
		}
		rec.Extra = datatypes.JSON(raw)
	}

	return rec, nil
}

// ToModule converts a relational record back to the in-memory shape,
// reconciling the server identity transparently.
func (r Record) ToModule() (Module, error) {
	m := Module{
		ClientID:    r.ClientID,
		ServerID:    r.ID,
		Type:        Type(r.Type),
		Order:       r.Position,
		Title:       r.Title,
		Description: r.Description,
		Placeholder: r.Placeholder,
		IsRequired:  r.IsRequired,
	}
	if !m.Type.IsValid() {
		return Module{}, fmt.Errorf("%w: %q", ErrInvalidType, r.Type)
	}

	if len(r.Options) > 0 {
		if err := json.Unmarshal(r.Options, &m.Options); err != nil {
			return Module{}, fmt.Errorf("module: decode options: %w", err)
		}
	}
	if len(r.Extra) > 0 {
		var extra recordExtra
		if err := json.Unmarshal(r.Extra, &extra); err != nil {
			return Module{}, fmt.Errorf("module: decode extra: %w", err)
		}
		m.ButtonText = extra.ButtonText
		m.Message = extra.Message
		m.ShowConfetti = extra.ShowConfetti
	}

	return m, nil
}

// Repository defines the persistence contract for a form's module list.
type Repository interface {
	ListByForm(ctx context.Context, formID string) ([]Module, error)
	ReplaceAll(ctx context.Context, formID string, modules []Module) ([]Module, error)
}

// GormRepository provides a relational-backed implementation of Repository.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository constructs a repository from a database connection.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// ListByForm returns the form's modules in display order.
func (r *GormRepository) ListByForm(ctx context.Context, formID string) ([]Module, error) {
	var records []Record
	err := r.db.WithContext(ctx).
		Where("form_id = ?", formID).
		Order("position ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	modules := make([]Module, 0, len(records))
	for _, rec := range records {
		m, err := rec.ToModule()
		if err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, nil
}

// ReplaceAll persists the full module list with replace semantics: the
// payload is authoritative truth for the form's question set. The delete and
// insert run in one transaction so a failed save leaves the prior list
// intact. An empty list is a valid persisted state.
func (r *GormRepository) ReplaceAll(ctx context.Context, formID string, modules []Module) ([]Module, error) {
	records := make([]Record, 0, len(modules))
	for _, m := range modules {
		rec, err := ToRecord(formID, m)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("form_id = ?", formID).Delete(&Record{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		return tx.Create(&records).Error
	})
	if err != nil {
		return nil, err
	}

	saved := make([]Module, 0, len(records))
	for _, rec := range records {
		m, err := rec.ToModule()
		if err != nil {
			return nil, err
		}
		saved = append(saved, m)
	}
	return saved, nil
}

// IsNotFound reports whether an error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
