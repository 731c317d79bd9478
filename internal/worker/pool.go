// Package worker runs per-input jobs on a bounded pool of goroutines.
package worker

import (
	"context"
	"sync"
)

// Result pairs an input with the output its job produced.
type Result[T any] struct {
	Input  string
	Output T
	Err    error
}

// Run calls fn once per input using at most concurrency goroutines and returns
// the results in input order. A failing job does not stop the others.
// Inputs not yet started when ctx is cancelled are still passed to fn, which is
// expected to observe ctx itself.
func Run[T any](ctx context.Context, inputs []string, concurrency int, fn func(context.Context, string) (T, error)) []Result[T] {
	results := make([]Result[T], len(inputs))
	if len(inputs) == 0 {
		return results
	}
	concurrency = max(1, min(concurrency, len(inputs)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out, err := fn(ctx, inputs[i])
				results[i] = Result[T]{Input: inputs[i], Output: out, Err: err}
			}
		}()
	}

	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
