// Package store persists named pulse templates.
//
// A stored template is a Record: its namespaces summarised for listing,
// plus the library document that rebuilds the whole template tree.
package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"pulse-mapper/internal/library"
	"pulse-mapper/internal/pulse"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for templates.
type Store interface {
	// Save inserts the record or replaces the one stored under the same name.
	// The stored ID and creation time of a replaced record are kept.
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, name string) (*Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// =============================================================================
// Record
// =============================================================================

// Record is a stored template.
type Record struct {
	ID           uuid.UUID  `json:"id" yaml:"id"`
	Name         string     `json:"name" yaml:"name"`
	Kind         pulse.Kind `json:"kind" yaml:"kind"`
	Parameters   []string   `json:"parameters" yaml:"parameters"`
	Channels     []string   `json:"channels" yaml:"channels"`
	Measurements []string   `json:"measurements" yaml:"measurements"`
	Document     string     `json:"document" yaml:"document"`
	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" yaml:"updated_at"`
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.-]*$`)

// ValidateName reports whether name can identify a stored template.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	return nil
}

// NewRecord encodes t under the given name.
func NewRecord(name string, t pulse.Template) (*Record, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	t = pulse.Identify(t, name)

	f, err := library.Encode(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	doc, err := library.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	now := time.Now().UTC()

	return &Record{
		ID:           uuid.New(),
		Name:         name,
		Kind:         t.Kind(),
		Parameters:   t.ParameterNames().Sorted(),
		Channels:     t.ChannelOrder(),
		Measurements: t.MeasurementNames().Sorted(),
		Document:     string(doc),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Template rebuilds the stored template from its document.
func (r *Record) Template() (pulse.Template, error) {
	f, err := library.Parse([]byte(r.Document))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	lib, err := library.Build(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
	}

	t, ok := lib.Get(r.Name)
	if !ok {
		return nil, fmt.Errorf("%w: document does not define %q", ErrInvalidData, r.Name)
	}

	return t, nil
}
