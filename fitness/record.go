package fitness

import (
	"fmt"
	"time"
)

// Validation limits for incoming records.
const (
	MinDuration          = 1
	MaxDuration          = 1440 // 24 hours in minutes
	MinWeight            = 20.0
	MaxWeight            = 500.0
	MaxDescriptionLength = 500
)

// Activity is a single logged workout. Records are immutable once created
// except via explicit update or delete.
type Activity struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"`
	Duration    int       `json:"duration"` // minutes
	Intensity   Intensity `json:"intensity"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
	Adaptation  string    `json:"adaptation,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// WeightEntry is a single body-weight measurement.
type WeightEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Weight    float64   `json:"weight"` // kilograms
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ValidationError reports a malformed field at the write boundary. It is
// always recoverable and carries a field-level message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the activity against the catalog and the validation rules.
// Unknown or missing fields fail instead of defaulting silently.
func (a *Activity) Validate() error {
	if !KnownType(a.Type) {
		return invalid("type", "unknown activity type %q", a.Type)
	}
	if a.Duration < MinDuration || a.Duration > MaxDuration {
		return invalid("duration", "must be between %d and %d minutes", MinDuration, MaxDuration)
	}
	if !a.Intensity.Valid() {
		return invalid("intensity", "must be one of Low, Medium, High")
	}
	if a.Date.IsZero() {
		return invalid("date", "is required")
	}
	if len(a.Description) > MaxDescriptionLength {
		return invalid("description", "must be at most %d characters", MaxDescriptionLength)
	}
	if a.Adaptation != "" && !KnownAdaptation(a.Adaptation) {
		return invalid("adaptation", "unknown adaptation %q", a.Adaptation)
	}
	return nil
}

// Validate checks the weight entry against the validation rules.
func (w *WeightEntry) Validate() error {
	if w.Weight <= MinWeight || w.Weight > MaxWeight {
		return invalid("weight", "must be between %.0f and %.0f kg", MinWeight, MaxWeight)
	}
	if w.Date.IsZero() {
		return invalid("date", "is required")
	}
	return nil
}
