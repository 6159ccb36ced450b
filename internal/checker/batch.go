package checker

import (
	"context"
	"sync"

	"github.com/Amkushu999/Proxych/internal/model"
)

// RunBatch verifies all descriptors concurrently, at most concurrency
// checks in flight at a time. Results come back in input order. Each
// verification is exactly one Verify call: the engine never retries a
// probe, so a flaky proxy shows up as flaky instead of being masked.
func RunBatch(ctx context.Context, descriptors []model.Descriptor, opts Options, concurrency int) []model.Report {
	if concurrency < 1 {
		concurrency = 1
	}

	out := make([]model.Report, len(descriptors))
	sem := make(chan struct{}, concurrency)
	wg := &sync.WaitGroup{}

	for i, d := range descriptors {
		wg.Add(1)
		go func(i int, d model.Descriptor) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			out[i] = Verify(ctx, d, opts)
		}(i, d)
	}

	wg.Wait()
	return out
}
