package store

import (
	"encoding/json"
	"errors"
	"testing"
)

const bicepClassification = `{"thresholds":{"up":160,"down":40},"landmarks":["RIGHT_SHOULDER","RIGHT_ELBOW","RIGHT_WRIST"],"evaluationType":"low_to_high"}`

func TestExerciseRepository_Create(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	exercise := &Exercise{
		ID:              "ex-1",
		Name:            "Bicep Curls",
		Description:     "Curl the arm",
		InstructionsURL: "https://example.com/bicep-curls",
		Classification:  json.RawMessage(bicepClassification),
		Animation:       json.RawMessage(`{"animationType":"oscillating"}`),
	}

	if err := repo.Create(exercise); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}

	if exercise.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set after create")
	}
	if exercise.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set after create")
	}

	retrieved, err := repo.GetByID("ex-1")
	if err != nil {
		t.Fatalf("failed to get exercise by ID: %v", err)
	}

	if retrieved.Name != exercise.Name {
		t.Errorf("Name mismatch: got %q, want %q", retrieved.Name, exercise.Name)
	}
	if retrieved.Description != exercise.Description {
		t.Errorf("Description mismatch: got %q, want %q", retrieved.Description, exercise.Description)
	}
	if retrieved.InstructionsURL != exercise.InstructionsURL {
		t.Errorf("InstructionsURL mismatch: got %q, want %q", retrieved.InstructionsURL, exercise.InstructionsURL)
	}
	if string(retrieved.Classification) != bicepClassification {
		t.Errorf("Classification mismatch: got %s", retrieved.Classification)
	}
	if string(retrieved.Animation) != `{"animationType":"oscillating"}` {
		t.Errorf("Animation mismatch: got %s", retrieved.Animation)
	}

	byName, err := repo.GetByName("Bicep Curls")
	if err != nil {
		t.Fatalf("failed to get exercise by name: %v", err)
	}
	if byName.ID != exercise.ID {
		t.Errorf("GetByName returned wrong exercise: got ID %q, want %q", byName.ID, exercise.ID)
	}
}

func TestExerciseRepository_Create_NullJSON(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	if err := repo.Create(&Exercise{ID: "ex-1", Name: "Plank", Classification: json.RawMessage("null")}); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}

	got, err := repo.GetByID("ex-1")
	if err != nil {
		t.Fatalf("failed to get exercise: %v", err)
	}
	if got.Classification != nil {
		t.Errorf("Classification should be nil, got %s", got.Classification)
	}
	if got.Animation != nil {
		t.Errorf("Animation should be nil, got %s", got.Animation)
	}
}

func TestExerciseRepository_Create_DuplicateName(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	if err := repo.Create(&Exercise{ID: "ex-1", Name: "Bicep Curls"}); err != nil {
		t.Fatalf("failed to create first exercise: %v", err)
	}

	err := repo.Create(&Exercise{ID: "ex-2", Name: "Bicep Curls"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestExerciseRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Exercises().GetByID("missing")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	_, err = s.Exercises().GetByName("missing")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExerciseRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	exercises, err := repo.List()
	if err != nil {
		t.Fatalf("failed to list exercises: %v", err)
	}
	if len(exercises) != 0 {
		t.Errorf("expected empty list, got %d exercises", len(exercises))
	}

	names := []string{"Bicep Curls", "Shoulder Abduction", "Knee Extension"}
	for i, name := range names {
		if err := repo.Create(&Exercise{ID: string(rune('a' + i)), Name: name}); err != nil {
			t.Fatalf("failed to create exercise %q: %v", name, err)
		}
	}

	exercises, err = repo.List()
	if err != nil {
		t.Fatalf("failed to list exercises: %v", err)
	}
	if len(exercises) != len(names) {
		t.Fatalf("expected %d exercises, got %d", len(names), len(exercises))
	}
	for i, e := range exercises {
		if e.Name != names[i] {
			t.Errorf("exercise %d: got %q, want %q", i, e.Name, names[i])
		}
	}

	n, err := repo.Count()
	if err != nil {
		t.Fatalf("failed to count exercises: %v", err)
	}
	if n != len(names) {
		t.Errorf("Count() = %d, want %d", n, len(names))
	}
}

func TestExerciseRepository_Update(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	exercise := &Exercise{ID: "ex-1", Name: "Bicep Curls"}
	if err := repo.Create(exercise); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}
	createdAt := exercise.CreatedAt

	exercise.Name = "Hammer Curls"
	exercise.Classification = json.RawMessage(bicepClassification)
	if err := repo.Update(exercise); err != nil {
		t.Fatalf("failed to update exercise: %v", err)
	}

	got, err := repo.GetByID("ex-1")
	if err != nil {
		t.Fatalf("failed to get exercise: %v", err)
	}
	if got.Name != "Hammer Curls" {
		t.Errorf("Name not updated: got %q", got.Name)
	}
	if string(got.Classification) != bicepClassification {
		t.Errorf("Classification not updated: got %s", got.Classification)
	}
	if got.UpdatedAt.Before(createdAt) {
		t.Error("UpdatedAt should not be before CreatedAt")
	}
}

func TestExerciseRepository_Update_Errors(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	if err := repo.Update(&Exercise{ID: "missing", Name: "x"}); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	repo.Create(&Exercise{ID: "ex-1", Name: "Bicep Curls"})
	repo.Create(&Exercise{ID: "ex-2", Name: "Knee Extension"})

	err := repo.Update(&Exercise{ID: "ex-2", Name: "Bicep Curls"})
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestExerciseRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	repo := s.Exercises()

	if err := repo.Create(&Exercise{ID: "ex-1", Name: "Bicep Curls"}); err != nil {
		t.Fatalf("failed to create exercise: %v", err)
	}

	if err := repo.Delete("ex-1"); err != nil {
		t.Fatalf("failed to delete exercise: %v", err)
	}

	if _, err := repo.GetByID("ex-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	if err := repo.Delete("ex-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}
