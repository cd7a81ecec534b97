package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/edge-detect/internal/imaging"
)

// Job is one image in a batch.
type Job struct {
	Name      string
	Input     imaging.PixelBuffer
	BackendID string
}

// BatchItem is the outcome of one Job. Exactly one of Result and Err is set.
type BatchItem struct {
	Name   string
	Result *Result
	Err    error
}

// Batch runs jobs with at most limit running at once (GOMAXPROCS when
// limit <= 0). Items come back in job order. A failing job does not stop the
// others; its error is stored in its item.
//
// Cancelling ctx stops jobs that have not started yet, which get ctx.Err()
// as their error. Jobs already running finish normally. The returned error is
// ctx.Err() after all started jobs complete.
func (p *Pipeline) Batch(ctx context.Context, jobs []Job, limit int) ([]BatchItem, error) {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	items := make([]BatchItem, len(jobs))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		items[i].Name = job.Name
		if err := ctx.Err(); err != nil {
			items[i].Err = err
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				items[i].Err = err
				return nil
			}
			res, err := p.Detect(job.Input, job.BackendID)
			items[i].Result = res
			items[i].Err = err
			return nil
		})
	}
	_ = g.Wait()

	return items, ctx.Err()
}
