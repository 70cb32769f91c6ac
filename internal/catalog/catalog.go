// Package catalog defines exercise definitions consumed by the rep-counting engine.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Direction is the evaluation policy declared for an exercise.
type Direction string

const (
	// HighToLow marks exercises evaluated from a high angle down to a low one.
	HighToLow Direction = "high_to_low"
	// LowToHigh marks exercises evaluated from a low angle up to a high one.
	LowToHigh Direction = "low_to_high"
	// Custom is reserved for exercises with bespoke evaluation.
	Custom Direction = "custom"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case HighToLow, LowToHigh, Custom:
		return true
	}
	return false
}

// Thresholds holds the up and down angle thresholds in degrees.
type Thresholds struct {
	Up   float64 `json:"up"`
	Down float64 `json:"down"`
}

// Classification describes how an exercise is recognized from a joint angle.
type Classification struct {
	Thresholds Thresholds `json:"thresholds"`
	// Landmarks is the ordered (A, B, C) triple; the angle is measured at B.
	Landmarks [3]string `json:"landmarks"`
	Direction Direction `json:"evaluationType"`
}

// Definition is a single catalog exercise.
type Definition struct {
	Name string
	// Classification is nil when the exercise has no evaluation config.
	Classification *Classification
}

// Loader supplies the full exercise catalog.
type Loader interface {
	LoadCatalog(ctx context.Context) ([]Definition, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) ([]Definition, error)

// LoadCatalog calls f(ctx).
func (f LoaderFunc) LoadCatalog(ctx context.Context) ([]Definition, error) {
	return f(ctx)
}

// Static returns a Loader that always yields a copy of defs.
func Static(defs []Definition) Loader {
	return LoaderFunc(func(context.Context) ([]Definition, error) {
		out := make([]Definition, len(defs))
		copy(out, defs)
		return out, nil
	})
}

var (
	// ErrInvalidClassification is returned for classification data that cannot be evaluated.
	ErrInvalidClassification = errors.New("invalid classification data")
	// ErrDuplicateName is returned when two definitions share a name.
	ErrDuplicateName = errors.New("duplicate exercise name")
)

// rawClassification is the stored JSON shape. Landmarks is a slice so that
// wrong lengths are reported instead of silently truncated.
type rawClassification struct {
	Thresholds *Thresholds `json:"thresholds"`
	Landmarks  []string    `json:"landmarks"`
	Direction  Direction   `json:"evaluationType"`
}

// ParseClassification decodes and validates stored classification JSON.
// Empty input and JSON null yield a nil classification.
func ParseClassification(data []byte) (*Classification, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var raw rawClassification
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidClassification, err)
	}

	c := &Classification{Direction: raw.Direction}
	if raw.Thresholds != nil {
		c.Thresholds = *raw.Thresholds
	}
	if len(raw.Landmarks) != 3 {
		return nil, fmt.Errorf("%w: expected 3 landmarks, got %d", ErrInvalidClassification, len(raw.Landmarks))
	}
	for i, name := range raw.Landmarks {
		c.Landmarks[i] = strings.ToUpper(strings.TrimSpace(name))
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks that the classification can be evaluated.
func (c *Classification) Validate() error {
	if c == nil {
		return nil
	}
	if !c.Direction.Valid() {
		return fmt.Errorf("%w: unknown evaluation type %q", ErrInvalidClassification, c.Direction)
	}
	if c.Thresholds == (Thresholds{}) && c.Direction != Custom {
		return fmt.Errorf("%w: thresholds are required", ErrInvalidClassification)
	}
	for _, name := range c.Landmarks {
		if name == "" {
			return fmt.Errorf("%w: empty landmark name", ErrInvalidClassification)
		}
	}
	return nil
}

// Marshal encodes the classification in its stored JSON shape.
func (c *Classification) Marshal() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	return json.Marshal(rawClassification{
		Thresholds: &c.Thresholds,
		Landmarks:  c.Landmarks[:],
		Direction:  c.Direction,
	})
}

// Validate checks a full catalog for empty or duplicate names and invalid
// classifications.
func Validate(defs []Definition) error {
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if d.Name == "" {
			return errors.New("exercise name is empty")
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateName, d.Name)
		}
		seen[d.Name] = struct{}{}
		if err := d.Classification.Validate(); err != nil {
			return fmt.Errorf("exercise %s: %w", d.Name, err)
		}
	}
	return nil
}
