// Package pipeline chains grayscale conversion, timed backend dispatch and
// display reconstruction into one edge-detection request.
//
// A Pipeline holds no per-request state, so one value may serve many
// goroutines as long as each request owns its input buffer.
package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/ironsheep/edge-detect/internal/backend"
	"github.com/ironsheep/edge-detect/internal/imaging"
	"github.com/ironsheep/edge-detect/internal/logging"
)

// Stage names used in StageError.
const (
	StageSelect      = "select"
	StageGrayscale   = "grayscale"
	StageDispatch    = "dispatch"
	StageReconstruct = "reconstruct"
)

// StageError identifies which step of a request failed. The cause is
// available through errors.As / errors.Is.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Result is the output of one request.
type Result struct {
	Edge    *backend.EdgeResult
	Display imaging.PixelBuffer
}

// Pipeline runs edge-detection requests against a registry.
type Pipeline struct {
	registry *backend.Registry
	display  []imaging.Option
}

// New creates a pipeline. display options are applied to every reconstruction.
func New(reg *backend.Registry, display ...imaging.Option) *Pipeline {
	return &Pipeline{registry: reg, display: display}
}

// Registry returns the registry requests are dispatched to.
func (p *Pipeline) Registry() *backend.Registry {
	return p.registry
}

// Detect runs one request: the backend is resolved first so an unknown id
// fails before any pixel is touched, then src is converted to intensity,
// timed through the backend, and expanded back into a display buffer.
//
// src is only read. On error the returned Result is nil.
func (p *Pipeline) Detect(src imaging.PixelBuffer, backendID string) (*Result, error) {
	b, err := p.registry.Select(backendID)
	if err != nil {
		return nil, &StageError{Stage: StageSelect, Err: err}
	}

	gray, err := imaging.ToGray(src)
	if err != nil {
		return nil, &StageError{Stage: StageGrayscale, Err: err}
	}

	edge, err := backend.Time(b, gray)
	if err != nil {
		return nil, &StageError{Stage: StageDispatch, Err: err}
	}

	display, err := imaging.ToDisplayBuffer(edge.Magnitude, p.display...)
	if err != nil {
		return nil, &StageError{Stage: StageReconstruct, Err: err}
	}

	logging.Logger().Info("edges detected",
		slog.String("backend", edge.BackendID),
		slog.Int("width", src.Width),
		slog.Int("height", src.Height),
		slog.Float64("elapsed_ms", edge.ElapsedMillis()))

	return &Result{Edge: edge, Display: display}, nil
}
