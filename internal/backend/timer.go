package backend

import (
	"log/slog"
	"time"

	"github.com/ironsheep/edge-detect/internal/imaging"
	"github.com/ironsheep/edge-detect/internal/logging"
)

// EdgeResult is the output of one timed backend invocation.
type EdgeResult struct {
	// Magnitude is the edge image, owned by the caller.
	Magnitude imaging.IntensityBuffer

	// Elapsed covers dispatch through the completed result only; grayscale
	// conversion and reconstruction are not included.
	Elapsed time.Duration

	// BackendID is the canonical id of the backend that ran, even when the
	// request used an alias.
	BackendID string
}

// ElapsedMillis returns Elapsed in fractional milliseconds for display.
func (r *EdgeResult) ElapsedMillis() float64 {
	return float64(r.Elapsed) / float64(time.Millisecond)
}

// Timed selects id and runs it on src, measuring wall-clock time with the
// monotonic clock. Unknown ids fail with *UnknownBackendError before anything
// runs; backend failures return *BackendExecutionError and no result.
func (r *Registry) Timed(id string, src imaging.IntensityBuffer) (*EdgeResult, error) {
	b, err := r.Select(id)
	if err != nil {
		return nil, err
	}
	return Time(b, src)
}

// Time runs b on src through Run and records how long it took.
func Time(b Backend, src imaging.IntensityBuffer) (*EdgeResult, error) {
	start := time.Now()
	out, err := Run(b, src)
	elapsed := time.Since(start)
	if err != nil {
		return nil, err
	}

	logging.Logger().Debug("edge detection finished",
		slog.String("backend", b.ID()),
		slog.Int("width", src.Width),
		slog.Int("height", src.Height),
		slog.Duration("elapsed", elapsed))

	return &EdgeResult{Magnitude: out, Elapsed: elapsed, BackendID: b.ID()}, nil
}
