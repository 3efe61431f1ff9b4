package pipeline

import (
	"context"
	stderrors "errors"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work run by the executors.
type Task func(ctx context.Context) error

// RunAll starts every task at once and waits for all of them. A failing task
// does not cancel its siblings. The returned error joins every task error.
func RunAll(ctx context.Context, tasks []Task) error {
	errs := make([]error, len(tasks))
	var g errgroup.Group
	for i, task := range tasks {
		g.Go(func() error {
			errs[i] = task(ctx)
			return errs[i]
		})
	}
	_ = g.Wait()
	return stderrors.Join(errs...)
}

// RunChunked runs tasks size at a time: each chunk is started together and
// the next chunk starts once the whole chunk has settled. A size of zero or
// less runs everything at once.
func RunChunked(ctx context.Context, tasks []Task, size int) error {
	if size <= 0 || size >= len(tasks) {
		return RunAll(ctx, tasks)
	}
	var errs []error
	for start := 0; start < len(tasks); start += size {
		end := min(start+size, len(tasks))
		if err := RunAll(ctx, tasks[start:end]); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
