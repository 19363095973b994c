package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes the tasks concurrently and waits for all of them.
// Every failure is returned, joined, and prefixed with its task name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "interfaces", Func: p.applyInterfaces},
//	    {Name: "routes", Func: p.applyRoutes},
//	}
//	if err := RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := task.Func(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", task.Name, err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

// Map runs fn for every input concurrently and returns the results in input
// order. Errors are joined; results of failed calls are left as zero values.
func Map[In, Out any](ctx context.Context, inputs []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(inputs))
	if len(inputs) == 0 {
		return out, nil
	}

	errs := make([]error, len(inputs))
	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i], errs[i] = fn(ctx, in)
		}()
	}
	wg.Wait()

	return out, errors.Join(errs...)
}
