package extract

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/metadata-extractor/internal/models"
)

type slowExtractor struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (e *slowExtractor) Run(ctx context.Context, path string) (*models.Record, error) {
	n := e.inFlight.Add(1)
	defer e.inFlight.Add(-1)
	for {
		cur := e.maxSeen.Load()
		if n <= cur || e.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}
	time.Sleep(e.delay)

	if path == "missing" {
		nf := &NotFoundError{Path: path}
		return models.ErrorRecord(nf.Error()), nf
	}
	return models.NewRecordBuilder().SetBase(models.FieldFilename, path).Build(), nil
}

func TestExtractBatchOrderAndIsolation(t *testing.T) {
	e := &slowExtractor{delay: 2 * time.Millisecond}
	paths := []string{"a", "missing", "c", "d", "e", "f"}

	results := ExtractBatch(context.Background(), e, paths, 2)
	require.Len(t, results, len(paths))

	for i, r := range results {
		assert.Equal(t, paths[i], r.Path)
		require.NotNil(t, r.Record)
	}
	assert.True(t, results[1].Record.Failed())
	assert.True(t, IsTerminal(results[1].Err))
	assert.Equal(t, "c", results[2].Record.String(models.FieldFilename))
	assert.NoError(t, results[2].Err)

	assert.LessOrEqual(t, e.maxSeen.Load(), int32(2))
}

func TestExtractBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ExtractBatch(ctx, &slowExtractor{}, []string{"a", "b"}, 0)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, errors.Is(r.Err, context.Canceled))
		assert.True(t, r.Record.Failed())
	}
}

func TestExtractBatchEmpty(t *testing.T) {
	assert.Empty(t, ExtractBatch(context.Background(), &slowExtractor{}, nil, 4))
}
