package store

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/physiotrack/internal/catalog"
)

// LoadCatalog converts the stored exercises into catalog definitions.
// A row whose classification cannot be parsed is logged and loaded without
// classification, so the rest of the catalog stays usable.
func (s *Store) LoadCatalog(ctx context.Context) ([]catalog.Definition, error) {
	exercises, err := s.Exercises().ListContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}

	defs := make([]catalog.Definition, 0, len(exercises))
	for _, e := range exercises {
		c, err := catalog.ParseClassification(e.Classification)
		if err != nil {
			log.WithFields(log.Fields{
				"exercise": e.Name,
				"id":       e.ID,
			}).Warnf("store: ignoring classification: %s", err)
			c = nil
		}
		defs = append(defs, catalog.Definition{Name: e.Name, Classification: c})
	}

	return defs, nil
}
