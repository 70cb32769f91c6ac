package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/ayusman/physiotrack/internal/catalog"
)

func TestStore_LoadCatalog(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	rows := []*Exercise{
		{ID: "a", Name: "Bicep Curls", Classification: json.RawMessage(bicepClassification)},
		{ID: "b", Name: "Plank"},
		{ID: "c", Name: "Broken", Classification: json.RawMessage(`{"landmarks":["A","B"],"evaluationType":"high_to_low"}`)},
	}
	for _, e := range rows {
		if err := repo.Create(e); err != nil {
			t.Fatalf("failed to create %q: %v", e.Name, err)
		}
	}

	defs, err := s.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	if len(defs) != 3 {
		t.Fatalf("expected 3 definitions, got %d", len(defs))
	}

	if defs[0].Name != "Bicep Curls" || defs[0].Classification == nil {
		t.Fatalf("first definition = %+v, want classified Bicep Curls", defs[0])
	}
	if defs[0].Classification.Thresholds != (catalog.Thresholds{Up: 160, Down: 40}) {
		t.Errorf("thresholds = %+v", defs[0].Classification.Thresholds)
	}
	if defs[1].Classification != nil {
		t.Errorf("Plank should have no classification, got %+v", defs[1].Classification)
	}
	if defs[2].Name != "Broken" || defs[2].Classification != nil {
		t.Errorf("invalid classification should load as unset, got %+v", defs[2])
	}

	if err := catalog.Validate(defs); err != nil {
		t.Errorf("loaded catalog should validate: %v", err)
	}
}

func TestStore_LoadCatalog_Canceled(t *testing.T) {
	s := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.LoadCatalog(ctx); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestStore_Seed(t *testing.T) {
	s := newTestStore(t)
	presets := catalog.Defaults()

	added, err := s.SeedIfEmpty(presets)
	if err != nil {
		t.Fatalf("SeedIfEmpty() error = %v", err)
	}
	if added != len(presets) {
		t.Errorf("SeedIfEmpty() added %d, want %d", added, len(presets))
	}

	added, err = s.SeedIfEmpty(presets)
	if err != nil {
		t.Fatalf("second SeedIfEmpty() error = %v", err)
	}
	if added != 0 {
		t.Errorf("second SeedIfEmpty() added %d, want 0", added)
	}

	// Seed skips names that already exist
	if err := s.Exercises().Delete(mustGetID(t, s, "Knee Extension")); err != nil {
		t.Fatalf("failed to delete: %v", err)
	}
	added, err = s.Seed(presets)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if added != 1 {
		t.Errorf("Seed() added %d, want 1", added)
	}

	defs, err := s.LoadCatalog(context.Background())
	if err != nil {
		t.Fatalf("LoadCatalog() error = %v", err)
	}
	want := catalog.DefaultDefinitions()
	if len(defs) != len(want) {
		t.Fatalf("loaded %d definitions, want %d", len(defs), len(want))
	}
	for i := range want {
		if defs[i].Name != want[i].Name {
			t.Errorf("definition %d: got %q, want %q", i, defs[i].Name, want[i].Name)
		}
		if *defs[i].Classification != *want[i].Classification {
			t.Errorf("definition %q: classification = %+v, want %+v", want[i].Name, defs[i].Classification, want[i].Classification)
		}
	}

	bicep, err := s.Exercises().GetByName("Bicep Curls")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if bicep.Description != presets[0].Description {
		t.Errorf("Description = %q, want %q", bicep.Description, presets[0].Description)
	}
}

func mustGetID(t *testing.T, s *Store, name string) string {
	t.Helper()
	e, err := s.Exercises().GetByName(name)
	if err != nil {
		t.Fatalf("GetByName(%q) error = %v", name, err)
	}
	return e.ID
}
