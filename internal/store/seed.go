package store

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/ayusman/physiotrack/internal/catalog"
)

// Seed inserts the presets that are not stored yet and returns how many were
// added. Existing exercises with the same name are left untouched.
func (s *Store) Seed(presets []catalog.Preset) (int, error) {
	repo := s.Exercises()
	added := 0

	for _, p := range presets {
		if _, err := repo.GetByName(p.Name); err == nil {
			continue
		} else if err != ErrNotFound {
			return added, fmt.Errorf("lookup %s: %w", p.Name, err)
		}

		classification, err := p.Classification.Marshal()
		if err != nil {
			return added, fmt.Errorf("encode %s: %w", p.Name, err)
		}

		e := &Exercise{
			ID:              uuid.New().String(),
			Name:            p.Name,
			Description:     p.Description,
			InstructionsURL: p.InstructionsURL,
			Classification:  classification,
		}
		if err := repo.Create(e); err != nil {
			return added, fmt.Errorf("create %s: %w", p.Name, err)
		}
		added++
	}

	return added, nil
}

// SeedIfEmpty seeds the presets only when the catalog has no exercises.
func (s *Store) SeedIfEmpty(presets []catalog.Preset) (int, error) {
	n, err := s.Exercises().Count()
	if err != nil {
		return 0, fmt.Errorf("count exercises: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	return s.Seed(presets)
}
