// Package module maintains the ordered list of form elements and its
// structural invariants: contiguous order values, unique and immutable
// client identity, and the option floor for choice questions.
package module

import (
	"errors"

	"github.com/google/uuid"
)

// Type identifies the kind of form element a module renders as.
type Type string

const (
	TypeWelcome        Type = "WELCOME"
	TypeGoodbye        Type = "GOODBYE"
	TypeQuote          Type = "QUOTE"
	TypeText           Type = "TEXT"
	TypeEmail          Type = "EMAIL"
	TypeNumber         Type = "NUMBER"
	TypePhone          Type = "PHONE"
	TypeURL            Type = "URL"
	TypeTextarea       Type = "TEXTAREA"
	TypeMultipleChoice Type = "MULTIPLE_CHOICE"
	TypeCheckboxes     Type = "CHECKBOXES"
	TypeDropdown       Type = "DROPDOWN"
	TypeDate           Type = "DATE"
	TypeFileUpload     Type = "FILE_UPLOAD"
)

// MinOptions is the smallest allowed option count for choice-type modules.
const MinOptions = 2

var (
	ErrInvalidType        = errors.New("module: invalid module type")
	ErrModuleNotFound     = errors.New("module: no module with that id")
	ErrOptionNotFound     = errors.New("module: no option with that id")
	ErrOptionFloor        = errors.New("module: choice modules need at least two options")
	ErrOptionsUnsupported = errors.New("module: module type does not carry options")
	ErrIndexOutOfRange    = errors.New("module: index out of range")
)

// IsValid reports whether t belongs to the closed type enumeration.
func (t Type) IsValid() bool {
	switch t {
	case TypeWelcome, TypeGoodbye, TypeQuote,
		TypeText, TypeEmail, TypeNumber, TypePhone, TypeURL, TypeTextarea,
		TypeMultipleChoice, TypeCheckboxes, TypeDropdown, TypeDate, TypeFileUpload:
		return true
	default:
		return false
	}
}

// Answerable reports whether a module of this type collects a response.
// Informational screens (welcome, goodbye, quote) do not.
func (t Type) Answerable() bool {
	switch t {
	case TypeWelcome, TypeGoodbye, TypeQuote:
		return false
	default:
		return t.IsValid()
	}
}

// HasOptions reports whether the type carries a selectable option list.
func (t Type) HasOptions() bool {
	switch t {
	case TypeMultipleChoice, TypeCheckboxes, TypeDropdown:
		return true
	default:
		return false
	}
}

// DefaultTitle returns the editor's placeholder title for a freshly added module.
func (t Type) DefaultTitle() string {
	switch t {
	case TypeWelcome:
		return "Welcome"
	case TypeGoodbye:
		return "Thank you!"
	case TypeQuote:
		return "A thought to share"
	case TypeEmail:
		return "What is your email address?"
	case TypeNumber:
		return "Enter a number"
	case TypePhone:
		return "What is your phone number?"
	case TypeURL:
		return "Share a link"
	case TypeTextarea:
		return "Tell us more"
	case TypeMultipleChoice:
		return "Pick one"
	case TypeCheckboxes:
		return "Select all that apply"
	case TypeDropdown:
		return "Choose an option"
	case TypeDate:
		return "Pick a date"
	case TypeFileUpload:
		return "Upload a file"
	default:
		return "Your question here"
	}
}

// Option is a selectable entry on a choice-type module.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Value string `json:"value"`
	Order int    `json:"order"`
}

// Module is a single form element. ClientID is the primary identity for all
// in-session logic; ServerID is the durable identity assigned at the
// persistence boundary and is never keyed on.
type Module struct {
	ClientID    string `json:"id"`
	ServerID    string `json:"serverId,omitempty"`
	Type        Type   `json:"type"`
	Order       int    `json:"order"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	IsRequired  bool   `json:"isRequired"`

	Options []Option `json:"options,omitempty"`

	// Type-specific fields.
	ButtonText   string `json:"buttonText,omitempty"`   // WELCOME
	Message      string `json:"message,omitempty"`      // GOODBYE
	ShowConfetti bool   `json:"showConfetti,omitempty"` // GOODBYE
}

// New constructs a module of the given type with a fresh client identity and
// the type's default title. Choice types are seeded with the minimum two
// options so the floor invariant holds from birth.
func New(t Type) (Module, error) {
	if !t.IsValid() {
		return Module{}, ErrInvalidType
	}

	m := Module{
		ClientID: uuid.NewString(),
		Type:     t,
		Title:    t.DefaultTitle(),
	}
	if t == TypeWelcome {
		m.ButtonText = "Start"
	}
	if t.HasOptions() {
		m.Options = []Option{
			newOption("Option 1", 0),
			newOption("Option 2", 1),
		}
	}
	return m, nil
}

func newOption(label string, order int) Option {
	return Option{
		ID:    uuid.NewString(),
		Label: label,
		Value: label,
		Order: order,
	}
}

// clone returns a deep copy of the module.
func (m Module) clone() Module {
	out := m
	if m.Options != nil {
		out.Options = make([]Option, len(m.Options))
		copy(out.Options, m.Options)
	}
	return out
}

// Patch holds the optional field updates accepted by List.Update. Nil fields
// are left untouched; Order and identity are never patchable.
type Patch struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Placeholder  *string `json:"placeholder"`
	IsRequired   *bool   `json:"isRequired"`
	ButtonText   *string `json:"buttonText"`
	Message      *string `json:"message"`
	ShowConfetti *bool   `json:"showConfetti"`
}

// OptionPatch holds the optional field updates accepted by List.UpdateOption.
type OptionPatch struct {
	Label *string `json:"label"`
	Value *string `json:"value"`
}
