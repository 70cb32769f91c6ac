// Package engine implements the rep-counting state machine.
//
// A single Engine holds process-wide state: the active exercise, a stage and a
// rep count per catalog exercise, the last activity time and the last feedback
// message. Every evaluation and every catalog swap runs under one mutex, so
// samples from concurrent connections are applied one at a time against a
// consistent catalog. Connections share the counters.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/ayusman/physiotrack/internal/catalog"
	"github.com/ayusman/physiotrack/internal/pose"
)

// DefaultInactivityTimeout is the idle period after which counts are cleared.
const DefaultInactivityTimeout = 15 * time.Second

// Feedback messages.
const (
	FeedbackInactivityReset  = "Counters reset due to inactivity."
	FeedbackNoClassification = "Classification data not available."
)

// Stage is the per-exercise hysteresis state.
type Stage string

const (
	StageUnset Stage = ""
	StageUp    Stage = "up"
	StageDown  Stage = "down"
)

// Result is the outcome of evaluating one sample.
type Result struct {
	ActiveExercise string
	RepCounts      map[string]int
	Feedback       string
	// RepCompleted is true when this sample completed a repetition.
	RepCompleted bool
}

// Message converts r into its wire representation.
func (r Result) Message() pose.Result {
	return pose.Result{
		ActiveExercise: r.ActiveExercise,
		RepCounts:      r.RepCounts,
		Feedback:       r.Feedback,
	}
}

// State is a point-in-time copy of the engine state.
type State struct {
	ActiveExercise string           `json:"active_exercise"`
	Exercises      []string         `json:"exercises"`
	Stages         map[string]Stage `json:"stages"`
	RepCounts      map[string]int   `json:"rep_counts"`
	Feedback       string           `json:"feedback_message"`
	LastActivity   time.Time        `json:"last_activity"`
}

// Config holds engine options.
type Config struct {
	// InactivityTimeout defaults to DefaultInactivityTimeout.
	InactivityTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Engine is the rep-counting state machine.
type Engine struct {
	loader     catalog.Loader
	inactivity time.Duration
	now        func() time.Time

	// reloadMu orders reloads so the last one to start is the last to swap.
	// It is never held by Evaluate.
	reloadMu sync.Mutex

	mu           sync.Mutex
	order        []string
	defs         map[string]catalog.Definition
	active       string
	stages       map[string]Stage
	counts       map[string]int
	lastActivity time.Time
	feedback     string
}

// New creates an Engine with an empty catalog. Call Reload to load it.
func New(loader catalog.Loader, cfg Config) *Engine {
	if cfg.InactivityTimeout <= 0 {
		cfg.InactivityTimeout = DefaultInactivityTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Engine{
		loader:       loader,
		inactivity:   cfg.InactivityTimeout,
		now:          cfg.Now,
		defs:         make(map[string]catalog.Definition),
		stages:       make(map[string]Stage),
		counts:       make(map[string]int),
		lastActivity: cfg.Now(),
	}
}

// Reload fetches the catalog and swaps it in atomically.
// Concurrent reloads run one at a time, so a slower earlier load cannot
// overwrite a later one. Evaluation continues during the fetch.
// Per-exercise state is kept for exercises still present, created for new
// ones and dropped for removed ones. On failure the previous catalog stays in
// place and the error is returned.
func (e *Engine) Reload(ctx context.Context) error {
	if e.loader == nil {
		return fmt.Errorf("reload catalog: no loader configured")
	}

	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	defs, err := e.loader.LoadCatalog(ctx)
	if err != nil {
		log.Errorf("engine: load catalog: %s", err)
		return fmt.Errorf("load catalog: %w", err)
	}
	if err := catalog.Validate(defs); err != nil {
		log.Errorf("engine: reject catalog: %s", err)
		return fmt.Errorf("validate catalog: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.swapLocked(defs)

	log.WithFields(log.Fields{
		"exercises": len(defs),
		"active":    e.active,
	}).Info("engine: catalog loaded")
	return nil
}

func (e *Engine) swapLocked(defs []catalog.Definition) {
	order := make([]string, 0, len(defs))
	byName := make(map[string]catalog.Definition, len(defs))
	stages := make(map[string]Stage, len(defs))
	counts := make(map[string]int, len(defs))

	for _, d := range defs {
		order = append(order, d.Name)
		byName[d.Name] = d
		stages[d.Name] = e.stages[d.Name]
		counts[d.Name] = e.counts[d.Name]
	}

	e.order = order
	e.defs = byName
	e.stages = stages
	e.counts = counts

	if _, ok := byName[e.active]; !ok {
		e.active = ""
		if len(order) > 0 {
			e.active = order[0]
		}
	}
}

// Evaluate applies one sample to the engine state.
func (e *Engine) Evaluate(sample pose.Sample) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if sample.Exercise != "" {
		if _, ok := e.defs[sample.Exercise]; ok {
			e.active = sample.Exercise
		}
	}

	completed := false
	now := e.now()

	if sample.HasLandmarks() {
		e.lastActivity = now
		e.feedback, completed = e.evaluateLocked(sample.Landmarks)
	} else if now.Sub(e.lastActivity) > e.inactivity {
		for name := range e.counts {
			e.counts[name] = 0
		}
		e.feedback = FeedbackInactivityReset
	}

	return Result{
		ActiveExercise: e.active,
		RepCounts:      e.countsLocked(),
		Feedback:       e.feedback,
		RepCompleted:   completed,
	}
}

// evaluateLocked runs the active exercise's state machine against one set of
// landmarks and returns the feedback message.
func (e *Engine) evaluateLocked(lms pose.Landmarks) (string, bool) {
	def, ok := e.defs[e.active]
	if !ok {
		return FeedbackNoClassification, false
	}
	c := def.Classification
	if c == nil {
		return fmt.Sprintf("Classification data not available for %s.", def.Name), false
	}
	if c.Direction == catalog.Custom {
		return fmt.Sprintf("Evaluation type 'custom' is not yet implemented for %s.", def.Name), false
	}

	pts, ok := lms.Triple(c.Landmarks)
	if !ok {
		return fmt.Sprintf("Ensure all required landmarks are visible for %s.", def.Name), false
	}

	angle := pose.Angle(pts[0], pts[1], pts[2])

	// high_to_low and low_to_high currently share one rule.
	completed := false
	if angle > c.Thresholds.Up {
		e.stages[def.Name] = StageUp
	}
	if angle < c.Thresholds.Down && e.stages[def.Name] == StageUp {
		e.stages[def.Name] = StageDown
		e.counts[def.Name]++
		completed = true
		log.WithFields(log.Fields{
			"exercise": def.Name,
			"count":    e.counts[def.Name],
		}).Debug("engine: rep completed")
	}

	return "", completed
}

func (e *Engine) countsLocked() map[string]int {
	out := make(map[string]int, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	stages := make(map[string]Stage, len(e.stages))
	for k, v := range e.stages {
		stages[k] = v
	}
	exercises := make([]string, len(e.order))
	copy(exercises, e.order)

	return State{
		ActiveExercise: e.active,
		Exercises:      exercises,
		Stages:         stages,
		RepCounts:      e.countsLocked(),
		Feedback:       e.feedback,
		LastActivity:   e.lastActivity,
	}
}

// Exercises returns the catalog exercise names in order.
func (e *Engine) Exercises() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}
