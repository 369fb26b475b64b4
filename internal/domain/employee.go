package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrValidation marks a rejected employee field update
	ErrValidation = errors.New("validation failed")

	// ErrUnknownField is returned when updating a field the record does not have
	ErrUnknownField = errors.New("unknown field")

	// ErrIncompleteRecord is returned when confirming a record with missing fields
	ErrIncompleteRecord = errors.New("employee record incomplete")
)

// ValidationError describes why a field value was rejected
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Employee is the onboarding record collected for a thread
type Employee struct {
	ID               *int64    `json:"employee_id,omitempty"`
	ThreadID         string    `json:"thread_id"`
	Name             string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Email            string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone            string    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address          string    `json:"address,omitempty" validate:"omitempty,max=500"`
	SeatPref         string    `json:"seat_pref,omitempty" validate:"omitempty,oneof=cabin cubicle"`
	OSRequirement    string    `json:"os_requirement,omitempty" validate:"omitempty,oneof=linux windows macos"`
	PrimaryEquipment string    `json:"primary_equipment,omitempty" validate:"omitempty,oneof=laptop headphone mic webcam phone"`
	Notes            string    `json:"notes,omitempty"`
	Confirmed        bool      `json:"confirmed"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RequiredEmployeeFields must be filled before a record can be confirmed
var RequiredEmployeeFields = []string{"name", "email"}

var employeeValidate = validator.New()

// employeeFields maps external keys to struct fields and their setters
var employeeFields = map[string]struct {
	structField string
	normalize   func(string) string
	set         func(*Employee, string)
	get         func(*Employee) string
}{
	"name": {"Name", strings.TrimSpace,
		func(e *Employee, v string) { e.Name = v }, func(e *Employee) string { return e.Name }},
	"email": {"Email", lowerTrim,
		func(e *Employee, v string) { e.Email = v }, func(e *Employee) string { return e.Email }},
	"phone": {"Phone", strings.TrimSpace,
		func(e *Employee, v string) { e.Phone = v }, func(e *Employee) string { return e.Phone }},
	"address": {"Address", strings.TrimSpace,
		func(e *Employee, v string) { e.Address = v }, func(e *Employee) string { return e.Address }},
	"seat_pref": {"SeatPref", lowerTrim,
		func(e *Employee, v string) { e.SeatPref = v }, func(e *Employee) string { return e.SeatPref }},
	"os_requirement": {"OSRequirement", normalizeOS,
		func(e *Employee, v string) { e.OSRequirement = v }, func(e *Employee) string { return e.OSRequirement }},
	"primary_equipment": {"PrimaryEquipment", lowerTrim,
		func(e *Employee, v string) { e.PrimaryEquipment = v }, func(e *Employee) string { return e.PrimaryEquipment }},
	"notes": {"Notes", strings.TrimSpace,
		func(e *Employee, v string) { e.Notes = v }, func(e *Employee) string { return e.Notes }},
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeOS(s string) string {
	switch v := lowerTrim(s); v {
	case "mac", "osx", "mac os", "macos":
		return "macos"
	default:
		return v
	}
}

// UpdateField sets a single field after normalising and validating the value.
// The record is left unchanged when the value is rejected.
func (e *Employee) UpdateField(key, value string) error {
	f, ok := employeeFields[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}

	candidate := *e
	f.set(&candidate, f.normalize(value))

	if err := employeeValidate.StructPartial(candidate, f.structField); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ValidationError{Field: key, Reason: describeRule(verrs[0])}
		}
		return &ValidationError{Field: key, Reason: err.Error()}
	}

	*e = candidate
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "must be at most " + fe.Param() + " characters"
	}
	return "invalid value"
}

// MissingFields lists required fields that are still empty
func (e *Employee) MissingFields() []string {
	var missing []string
	for _, key := range RequiredEmployeeFields {
		if employeeFields[key].get(e) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// IsReadyForInsert reports whether the record has every required field
func (e *Employee) IsReadyForInsert() bool {
	return len(e.MissingFields()) == 0 && employeeValidate.Struct(e) == nil
}

// Summary renders the record for confirmation in chat
func (e *Employee) Summary() string {
	dash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}
	lines := []string{
		"Name: " + dash(e.Name),
		"Email: " + dash(e.Email),
		"Phone: " + dash(e.Phone),
		"Address: " + dash(e.Address),
		"Seat preference: " + dash(e.SeatPref),
		"OS requirement: " + dash(e.OSRequirement),
		"Primary equipment: " + dash(e.PrimaryEquipment),
	}
	return strings.Join(lines, "\n")
}

// EmployeeRepository defines the interface for employee record storage
type EmployeeRepository interface {
	GetByThread(ctx context.Context, threadID string) (*Employee, error)
	Save(ctx context.Context, employee *Employee) error
}
