// Package pipeline runs one screenshot-to-code request from an authenticated
// identity through intake, generation and persistence, and always cleans up
// the transient upload.
package pipeline

import (
	"context"
	"errors"
	"mime/multipart"
	"time"

	"github.com/krishkalaria12/snap-code/apperror"
	"github.com/krishkalaria12/snap-code/models"
	"github.com/krishkalaria12/snap-code/store"
	"github.com/krishkalaria12/snap-code/uploads"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle          State = "idle"
	StateAuthenticated State = "authenticated"
	StateUploaded      State = "uploaded"
	StateGenerating    State = "generating"
	StatePersisted     State = "persisted"
	StateCleaned       State = "cleaned"
	StateResponded     State = "responded"
	StateFailed        State = "failed"
)

type Stage string

const (
	StageAuth        Stage = "auth"
	StageIntake      Stage = "intake"
	StageGeneration  Stage = "generation"
	StagePersistence Stage = "persistence"
)

// Intake accepts and releases transient uploads.
type Intake interface {
	Accept(file *multipart.FileHeader, rawOutputType string) (*uploads.Upload, models.OutputType, error)
	Release(u *uploads.Upload) error
}

// Generator turns a stored screenshot into code.
type Generator interface {
	Generate(ctx context.Context, path string, outputType models.OutputType) (string, error)
}

// Request is what the HTTP layer hands to the pipeline.
type Request struct {
	UserID     uint
	File       *multipart.FileHeader
	OutputType string
}

type Result struct {
	ID         string            `json:"id"`
	Code       string            `json:"code"`
	OutputType models.OutputType `json:"outputType"`
}

// Failure is the absorbing state: the stage that failed and why.
type Failure struct {
	Stage Stage
	Err   error
}

func (f *Failure) Error() string {
	return string(f.Stage) + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// StageOf returns the failing stage recorded in err, if any.
func StageOf(err error) (Stage, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Stage, true
	}
	return "", false
}

type Pipeline struct {
	intake    Intake
	generator Generator
	store     store.Store
	log       *zap.Logger
}

func New(intake Intake, generator Generator, st store.Store, log *zap.Logger) *Pipeline {
	return &Pipeline{intake: intake, generator: generator, store: st, log: log}
}

// run tracks one request's position in the state machine.
type run struct {
	log   *zap.Logger
	state State
	start time.Time
}

func (r *run) to(next State) {
	r.log.Debug("pipeline transition",
		zap.String("from", string(r.state)),
		zap.String("to", string(next)),
		zap.Duration("elapsed", time.Since(r.start)),
	)
	r.state = next
}

func (r *run) fail(stage Stage, err error) error {
	r.log.Warn("pipeline failed",
		zap.String("state", string(r.state)),
		zap.String("stage", string(stage)),
		zap.String("kind", apperror.KindOf(err).String()),
		zap.Error(err),
	)
	r.state = StateFailed
	return &Failure{Stage: stage, Err: err}
}

// Run executes the pipeline. The returned error is always a *Failure wrapping an
// *apperror.Error.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	r := &run{
		log:   p.log.With(zap.Uint("user_id", req.UserID)),
		state: StateIdle,
		start: time.Now(),
	}

	if req.UserID == 0 {
		return nil, r.fail(StageAuth, apperror.New(apperror.Unauthenticated, "pipeline", errors.New("no identity")))
	}
	r.to(StateAuthenticated)

	upload, outputType, err := p.intake.Accept(req.File, req.OutputType)
	if err != nil {
		return nil, r.fail(StageIntake, err)
	}
	r.to(StateUploaded)

	// Every terminal state past this point releases the transient file.
	cleaned := false
	cleanup := func() {
		if cleaned {
			return
		}
		cleaned = true
		if err := p.intake.Release(upload); err != nil {
			r.log.Warn("failed to delete upload", zap.String("path", upload.Path), zap.Error(err))
		}
	}
	defer cleanup()

	r.to(StateGenerating)
	code, err := p.generator.Generate(ctx, upload.Path, outputType)
	if err != nil {
		return nil, r.fail(StageGeneration, ensureKind(err, apperror.GenerationFailure, "pipeline.generate"))
	}

	record, err := p.store.Save(ctx, req.UserID, upload.Filename, outputType, code)
	if err != nil {
		r.log.Error("generated code discarded after persistence failure",
			zap.String("output_type", string(outputType)),
			zap.Int("code_bytes", len(code)),
		)
		return nil, r.fail(StagePersistence, ensureKind(err, apperror.PersistenceFailure, "pipeline.save"))
	}
	r.to(StatePersisted)

	cleanup()
	r.to(StateCleaned)

	r.to(StateResponded)
	r.log.Info("code generated",
		zap.String("id", record.ID.String()),
		zap.String("output_type", string(outputType)),
		zap.Duration("took", time.Since(r.start)),
	)

	return &Result{
		ID:         record.ID.String(),
		Code:       code,
		OutputType: outputType,
	}, nil
}

// ensureKind maps a stage error onto the single kind that stage may produce.
func ensureKind(err error, kind apperror.Kind, op string) error {
	if apperror.KindOf(err) == kind {
		return err
	}
	return apperror.New(kind, op, err)
}
