// Package api provides HTTP API handlers for the physiotrack exercise catalog.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/ayusman/physiotrack/internal/catalog"
	"github.com/ayusman/physiotrack/internal/notify"
	"github.com/ayusman/physiotrack/internal/store"
)

// Reloader reloads the engine catalog from storage.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Notifier announces catalog changes to other instances.
type Notifier interface {
	Publish(ctx context.Context, action, exerciseID string) error
}

// ExerciseHandler handles HTTP requests for exercise resources.
type ExerciseHandler struct {
	store    *store.Store
	reloader Reloader
	notifier Notifier
}

// NewExerciseHandler creates a new ExerciseHandler. Every successful mutation
// reloads the engine through reloader and is announced through notifier;
// either may be nil.
func NewExerciseHandler(s *store.Store, reloader Reloader, notifier Notifier) *ExerciseHandler {
	return &ExerciseHandler{store: s, reloader: reloader, notifier: notifier}
}

// SetupRoutes registers the exercise routes on r.
func (h *ExerciseHandler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/exercises", h.HandleList).Methods("GET").Name("list-exercises")
	r.HandleFunc("/api/exercises", h.HandleCreate).Methods("POST").Name("new-exercise")
	r.HandleFunc("/api/exercises/reload", h.HandleReload).Methods("POST").Name("reload-exercises")
	r.HandleFunc("/api/exercises/{id}", h.HandleGet).Methods("GET").Name("get-exercise")
	r.HandleFunc("/api/exercises/{id}", h.HandleUpdate).Methods("PUT").Name("update-exercise")
	r.HandleFunc("/api/exercises/{id}", h.HandleDelete).Methods("DELETE").Name("delete-exercise")
}

// Request and response types

type createExerciseRequest struct {
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	InstructionsURL string          `json:"instructions_url"`
	Classification  json.RawMessage `json:"classification"`
	Animation       json.RawMessage `json:"animation"`
}

// updateExerciseRequest fields left out of the body keep their stored value.
// An explicit null clears classification or animation.
type updateExerciseRequest struct {
	Name            *string         `json:"name"`
	Description     *string         `json:"description"`
	InstructionsURL *string         `json:"instructions_url"`
	Classification  json.RawMessage `json:"classification"`
	Animation       json.RawMessage `json:"animation"`
}

type exerciseResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	InstructionsURL string          `json:"instructions_url"`
	Classification  json.RawMessage `json:"classification"`
	Animation       json.RawMessage `json:"animation"`
	CreatedAt       string          `json:"created_at"`
	UpdatedAt       string          `json:"updated_at"`
}

type listExercisesResponse struct {
	Exercises []exerciseResponse `json:"exercises"`
}

type reloadResponse struct {
	Exercises int `json:"exercises"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// toResponse converts a store.Exercise to an exerciseResponse.
func toResponse(e *store.Exercise) exerciseResponse {
	return exerciseResponse{
		ID:              e.ID,
		Name:            e.Name,
		Description:     e.Description,
		InstructionsURL: e.InstructionsURL,
		Classification:  e.Classification,
		Animation:       e.Animation,
		CreatedAt:       e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       e.UpdatedAt.Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Warnf("api: encode response: %s", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// normalizeClassification validates raw classification JSON and returns its
// canonical stored form, nil when unset.
func normalizeClassification(raw json.RawMessage) (json.RawMessage, error) {
	c, err := catalog.ParseClassification(raw)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, nil
	}
	return c.Marshal()
}

// HandleList handles GET /api/exercises and returns all exercises.
func (h *ExerciseHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	exercises, err := h.store.Exercises().List()
	if err != nil {
		log.Errorf("api: list exercises: %s", err)
		writeError(w, http.StatusInternalServerError, "Failed to list exercises")
		return
	}

	response := listExercisesResponse{
		Exercises: make([]exerciseResponse, 0, len(exercises)),
	}

	for _, e := range exercises {
		response.Exercises = append(response.Exercises, toResponse(e))
	}

	writeJSON(w, http.StatusOK, response)
}

// HandleGet handles GET /api/exercises/{id} and returns a single exercise.
func (h *ExerciseHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	exercise, err := h.store.Exercises().GetByID(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get exercise")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(exercise))
}

// HandleCreate handles POST /api/exercises and creates a new exercise.
func (h *ExerciseHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	classification, err := normalizeClassification(req.Classification)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	exercise := &store.Exercise{
		ID:              uuid.New().String(),
		Name:            name,
		Description:     req.Description,
		InstructionsURL: req.InstructionsURL,
		Classification:  classification,
		Animation:       req.Animation,
	}

	if err := h.store.Exercises().Create(exercise); err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			writeError(w, http.StatusConflict, "Exercise name already exists")
			return
		}
		log.Errorf("api: create exercise: %s", err)
		writeError(w, http.StatusInternalServerError, "Failed to create exercise")
		return
	}

	h.catalogChanged(r.Context(), notify.ActionCreate, exercise.ID)
	writeJSON(w, http.StatusCreated, toResponse(exercise))
}

// HandleUpdate handles PUT /api/exercises/{id} and updates an existing exercise.
func (h *ExerciseHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	exercise, err := h.store.Exercises().GetByID(mux.Vars(r)["id"])
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get exercise")
		return
	}

	var req updateExerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "Name must not be empty")
			return
		}
		exercise.Name = name
	}
	if req.Description != nil {
		exercise.Description = *req.Description
	}
	if req.InstructionsURL != nil {
		exercise.InstructionsURL = *req.InstructionsURL
	}
	if req.Classification != nil {
		classification, err := normalizeClassification(req.Classification)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		exercise.Classification = classification
	}
	if req.Animation != nil {
		exercise.Animation = req.Animation
	}

	if err := h.store.Exercises().Update(exercise); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateName):
			writeError(w, http.StatusConflict, "Exercise name already exists")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Exercise not found")
		default:
			log.Errorf("api: update exercise: %s", err)
			writeError(w, http.StatusInternalServerError, "Failed to update exercise")
		}
		return
	}

	// Reread so a cleared animation reports null rather than the literal.
	if updated, err := h.store.Exercises().GetByID(exercise.ID); err == nil {
		exercise = updated
	}

	h.catalogChanged(r.Context(), notify.ActionUpdate, exercise.ID)
	writeJSON(w, http.StatusOK, toResponse(exercise))
}

// HandleDelete handles DELETE /api/exercises/{id} and removes an exercise.
func (h *ExerciseHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.store.Exercises().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Exercise not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete exercise")
		return
	}

	h.catalogChanged(r.Context(), notify.ActionDelete, id)
	w.WriteHeader(http.StatusNoContent)
}

// HandleReload handles POST /api/exercises/reload and forces a catalog reload.
func (h *ExerciseHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		writeError(w, http.StatusServiceUnavailable, "Reload not available")
		return
	}
	if err := h.reloader.Reload(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload exercises")
		return
	}

	n, err := h.store.Exercises().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count exercises")
		return
	}

	h.publish(r.Context(), notify.ActionReload, "")
	writeJSON(w, http.StatusOK, reloadResponse{Exercises: n})
}

// catalogChanged reloads the local engine and notifies other instances.
// Failures are logged; the stored change stands either way.
func (h *ExerciseHandler) catalogChanged(ctx context.Context, action, id string) {
	if h.reloader != nil {
		if err := h.reloader.Reload(ctx); err != nil {
			log.WithField("exercise_id", id).Errorf("api: reload after %s: %s", action, err)
		}
	}
	h.publish(ctx, action, id)
}

func (h *ExerciseHandler) publish(ctx context.Context, action, id string) {
	if h.notifier == nil {
		return
	}
	if err := h.notifier.Publish(ctx, action, id); err != nil {
		log.WithField("exercise_id", id).Warnf("api: publish %s: %s", action, err)
	}
}
