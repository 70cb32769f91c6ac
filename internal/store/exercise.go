package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateName is returned when an exercise name is already taken.
	ErrDuplicateName = errors.New("exercise name already exists")
)

// Exercise represents a catalog exercise stored in the database.
type Exercise struct {
	ID              string
	Name            string
	Description     string
	InstructionsURL string
	// Classification is the raw classification JSON, nil when unset.
	Classification json.RawMessage
	// Animation is opaque client data, stored and returned as-is.
	Animation json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExerciseRepository provides CRUD operations for exercises.
type ExerciseRepository struct {
	db *sql.DB
}

// Exercises returns the exercise repository for this store.
func (s *Store) Exercises() *ExerciseRepository {
	return &ExerciseRepository{db: s.db}
}

const exerciseColumns = `id, name, description, instructions_url, classification, animation, created_at, updated_at`

// Create inserts a new exercise into the database.
func (r *ExerciseRepository) Create(e *Exercise) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO exercises (`+exerciseColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Description, e.InstructionsURL,
		nullableJSON(e.Classification), nullableJSON(e.Animation),
		e.CreatedAt, e.UpdatedAt,
	)
	return translateErr(err)
}

// GetByID retrieves an exercise by its ID.
func (r *ExerciseRepository) GetByID(id string) (*Exercise, error) {
	return scanExercise(r.db.QueryRow(
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = ?`, id,
	))
}

// GetByName retrieves an exercise by its name.
func (r *ExerciseRepository) GetByName(name string) (*Exercise, error) {
	return scanExercise(r.db.QueryRow(
		`SELECT `+exerciseColumns+` FROM exercises WHERE name = ?`, name,
	))
}

// List retrieves all exercises in creation order.
func (r *ExerciseRepository) List() ([]*Exercise, error) {
	return r.ListContext(context.Background())
}

// ListContext is List bound to ctx.
func (r *ExerciseRepository) ListContext(ctx context.Context) ([]*Exercise, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+exerciseColumns+` FROM exercises ORDER BY created_at ASC, rowid ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercises []*Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return exercises, nil
}

// Count returns the number of stored exercises.
func (r *ExerciseRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM exercises`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Update updates an existing exercise in the database.
func (r *ExerciseRepository) Update(e *Exercise) error {
	e.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE exercises SET name = ?, description = ?, instructions_url = ?,
		 classification = ?, animation = ?, updated_at = ?
		 WHERE id = ?`,
		e.Name, e.Description, e.InstructionsURL,
		nullableJSON(e.Classification), nullableJSON(e.Animation),
		e.UpdatedAt, e.ID,
	)
	if err != nil {
		return translateErr(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes an exercise from the database by its ID.
func (r *ExerciseRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(row rowScanner) (*Exercise, error) {
	e := &Exercise{}
	var classification, animation sql.NullString

	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.InstructionsURL,
		&classification, &animation, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if classification.Valid {
		e.Classification = json.RawMessage(classification.String)
	}
	if animation.Valid {
		e.Animation = json.RawMessage(animation.String)
	}
	return e, nil
}

// nullableJSON stores empty and JSON null values as SQL NULL.
func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return string(raw)
}

func translateErr(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return ErrDuplicateName
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed: exercises.name") {
		return ErrDuplicateName
	}
	return err
}
