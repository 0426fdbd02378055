package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a named unit of work.
type Task struct {
	Name string
	Func func(context.Context) error
}

// TaskError ties an error to the task that produced it.
type TaskError struct {
	Name string
	Err  error
}

func (e *TaskError) Error() string { return fmt.Sprintf("%s: %v", e.Name, e.Err) }

func (e *TaskError) Unwrap() error { return e.Err }

// RunAll executes every task in its own goroutine and blocks until all have
// returned. The result joins one *TaskError per failed task, in task order.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "node1", Func: probe("node1")},
//	    {Name: "node2", Func: probe("node2")},
//	}
//	if err := RunAll(ctx, tasks); err != nil {
//	    return err
//	}
func RunAll(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = &TaskError{Name: task.Name, Err: fmt.Errorf("panic: %v", r)}
				}
			}()
			if err := task.Func(ctx); err != nil {
				errs[i] = &TaskError{Name: task.Name, Err: err}
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
