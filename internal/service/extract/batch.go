package extract

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

// Result is the outcome for one path of a batch.
type Result struct {
	Path   string
	Record *models.Record
	// Err is the terminal error, if the record holds only "error".
	Err error
}

// ExtractBatch runs e over paths with at most concurrency files in flight.
// Results are in input order. A failing file does not affect the others.
// Paths not yet started when ctx is cancelled get an error record.
func ExtractBatch(ctx context.Context, e Extractor, paths []string, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 1
	}
	results := make([]Result, len(paths))

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Path: path, Record: models.ErrorRecord(err.Error()), Err: err}
				return nil
			}
			rec, err := e.Run(ctx, path)
			results[i] = Result{Path: path, Record: rec, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}
