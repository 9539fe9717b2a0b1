// Package pipeline implements the staged handler chain the registration,
// update and cancel flows are assembled from. Handlers are registered at
// startup against typed stages and run in descending priority; they share
// one mutable run context per API call.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Stage identifies a band in a pipeline. Third parties interpose at the
// before/after bands without knowing any numeric positions.
type Stage int

const (
	StageBeforeIdentification Stage = iota
	StageIdentification
	StageAfterIdentification

	StageBeforeCreate
	StageCreate
	StageAfterCreate

	StageBeforeUpdate
	StageUpdateContact
	StageUpdateParticipant
	StageAfterUpdate

	StageBeforeCancel
	StageCancel
	StageAfterCancel

	StageCommunication
)

var stageNames = map[Stage]string{
	StageBeforeIdentification: "before-identification",
	StageIdentification:       "identification",
	StageAfterIdentification:  "after-identification",
	StageBeforeCreate:         "before-create",
	StageCreate:               "create",
	StageAfterCreate:          "after-create",
	StageBeforeUpdate:         "before-update",
	StageUpdateContact:        "update-contact",
	StageUpdateParticipant:    "update-participant",
	StageAfterUpdate:          "after-update",
	StageBeforeCancel:         "before-cancel",
	StageCancel:               "cancel",
	StageAfterCancel:          "after-cancel",
	StageCommunication:        "communication",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// CreateStages is the stage sequence of the registration pipeline.
var CreateStages = []Stage{
	StageBeforeIdentification,
	StageIdentification,
	StageAfterIdentification,
	StageBeforeCreate,
	StageCreate,
	StageAfterCreate,
	StageCommunication,
}

// UpdateStages is the stage sequence of the update pipeline.
var UpdateStages = []Stage{
	StageBeforeIdentification,
	StageIdentification,
	StageAfterIdentification,
	StageBeforeUpdate,
	StageUpdateContact,
	StageUpdateParticipant,
	StageAfterUpdate,
	StageCommunication,
}

// CancelStages is the stage sequence of the cancel pipeline.
var CancelStages = []Stage{
	StageBeforeIdentification,
	StageIdentification,
	StageAfterIdentification,
	StageBeforeCancel,
	StageCancel,
	StageAfterCancel,
	StageCommunication,
}

// State is the contract a run context exposes to the runner. Embedding
// *Run satisfies it.
type State interface {
	HasErrors() bool
	consumeRun() bool
}

// Handler is one unit of pipeline behavior over a run type R.
type Handler[R State] interface {
	Stage() Stage
	// Priority orders handlers within a stage, highest first. Ties keep
	// registration order; same-priority handlers writing the same field
	// means last-registered wins, which callers must not rely on.
	Priority() int
	Handle(ctx context.Context, run R) error
}

type funcHandler[R State] struct {
	stage    Stage
	priority int
	fn       func(context.Context, R) error
}

func (h funcHandler[R]) Stage() Stage                            { return h.stage }
func (h funcHandler[R]) Priority() int                           { return h.priority }
func (h funcHandler[R]) Handle(ctx context.Context, run R) error { return h.fn(ctx, run) }

// NewHandler adapts a function to a Handler.
func NewHandler[R State](stage Stage, priority int, fn func(context.Context, R) error) Handler[R] {
	return funcHandler[R]{stage: stage, priority: priority, fn: fn}
}

// ErrRunConsumed is returned when a run context is executed twice.
var ErrRunConsumed = errors.New("pipeline run context already consumed")

// Runner dispatches registered handlers over a stage sequence.
type Runner[R State] struct {
	handlers map[Stage][]Handler[R]
}

// NewRunner returns an empty Runner.
func NewRunner[R State]() *Runner[R] {
	return &Runner[R]{handlers: make(map[Stage][]Handler[R])}
}

// Register adds a handler. Handlers within a stage are kept in descending
// priority, ties in registration order.
func (r *Runner[R]) Register(h Handler[R]) {
	list := append(r.handlers[h.Stage()], h)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Priority() > list[j].Priority()
	})
	r.handlers[h.Stage()] = list
}

// Execute runs the handlers of each stage in order. All handlers of the
// current stage run even once errors are present; progression to the next
// stage stops as soon as the run has errors. Writes already performed by
// earlier handlers are not undone. A run context is single-use.
func (r *Runner[R]) Execute(ctx context.Context, run R, stages []Stage) error {
	if run.consumeRun() {
		return ErrRunConsumed
	}
	for _, stage := range stages {
		if run.HasErrors() {
			break
		}
		for _, h := range r.handlers[stage] {
			if err := h.Handle(ctx, run); err != nil {
				return fmt.Errorf("stage %s: %w", stage, err)
			}
		}
	}
	return nil
}
