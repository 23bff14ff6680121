// Package async runs independent tasks on a bounded number of goroutines.
package async

import (
	"context"
	"fmt"
	"sync"
)

type Task[T any] struct {
	Name    string
	Execute func(ctx context.Context) (T, error)
}

type Result[T any] struct {
	Name string
	Data T
	Err  error
}

type Pool[T any] struct {
	workerCount int
}

// NewPool returns a pool running at most workerCount tasks at once.
func NewPool[T any](workerCount int) *Pool[T] {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool[T]{workerCount: workerCount}
}

type indexedTask[T any] struct {
	index int
	task  Task[T]
}

func run[T any](ctx context.Context, task Task[T]) (res Result[T]) {
	res.Name = task.Name
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()
	res.Data, res.Err = task.Execute(ctx)
	return res
}

func (p *Pool[T]) worker(ctx context.Context, wg *sync.WaitGroup, tasks <-chan indexedTask[T], results []Result[T]) {
	defer wg.Done()
	for it := range tasks {
		if err := ctx.Err(); err != nil {
			results[it.index] = Result[T]{Name: it.task.Name, Err: err}
			continue
		}
		results[it.index] = run(ctx, it.task)
	}
}

// Execute runs every task and returns their results in task order. Tasks not
// started before ctx is done report ctx's error.
func (p *Pool[T]) Execute(ctx context.Context, tasks []Task[T]) []Result[T] {
	results := make([]Result[T], len(tasks))
	queue := make(chan indexedTask[T])

	var wg sync.WaitGroup
	for i := 0; i < min(p.workerCount, len(tasks)); i++ {
		wg.Add(1)
		go p.worker(ctx, &wg, queue, results)
	}

	for i, task := range tasks {
		queue <- indexedTask[T]{index: i, task: task}
	}
	close(queue)

	wg.Wait()
	return results
}
