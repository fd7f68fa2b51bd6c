// Package tasks runs fire-and-forget work under a shared cancellable context
// so callers get an immediate acknowledgement and shutdown can still wait for
// everything that was started.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/ecclesia/internal/common"
	"github.com/ternarybob/ecclesia/internal/models"
)

// Task is one background unit of work
type Task struct {
	ID        string
	Name      string
	StartedAt time.Time

	mu         sync.Mutex
	status     models.TaskStatus
	finishedAt time.Time
	err        error
	done       chan struct{}
}

// Status returns the current task status
func (t *Task) Status() models.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Err returns the task error once finished
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// FinishedAt returns the completion time, zero while running
func (t *Task) FinishedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.finishedAt
}

// Done is closed when the task finishes
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) finish(status models.TaskStatus, err error) {
	t.mu.Lock()
	t.status = status
	t.err = err
	t.finishedAt = time.Now()
	t.mu.Unlock()
	close(t.done)
}

// Hooks observe task lifecycle, e.g. for metrics
type Hooks struct {
	OnStart  func(*Task)
	OnFinish func(*Task)
}

// Registry owns the context every task runs under
type Registry struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger arbor.ILogger
	hooks  Hooks

	mu    sync.Mutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

// NewRegistry creates a registry whose tasks are cancelled by Cancel
func NewRegistry(logger arbor.ILogger, hooks Hooks) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
		hooks:  hooks,
		tasks:  make(map[string]*Task),
	}
}

// Go starts fn in the background and returns immediately. A panic in fn
// fails the task instead of the process.
func (r *Registry) Go(name string, fn func(ctx context.Context) error) *Task {
	task := &Task{
		ID:        uuid.NewString(),
		Name:      name,
		StartedAt: time.Now(),
		status:    models.TaskStatusRunning,
		done:      make(chan struct{}),
	}

	// mu serializes wg.Add with Cancel; nothing is added after Cancel
	r.mu.Lock()
	r.tasks[task.ID] = task
	if err := r.ctx.Err(); err != nil {
		r.mu.Unlock()
		task.finish(models.TaskStatusCancelled, err)
		r.logger.Warn().Str("task", name).Msg("Task rejected, registry is shut down")
		return task
	}
	r.wg.Add(1)
	r.mu.Unlock()

	if r.hooks.OnStart != nil {
		r.hooks.OnStart(task)
	}

	var once sync.Once
	complete := func(status models.TaskStatus, err error) {
		once.Do(func() {
			task.finish(status, err)
			if r.hooks.OnFinish != nil {
				r.hooks.OnFinish(task)
			}
			r.wg.Done()
		})
	}

	common.SafeGo(r.logger, name, func() {
		err := fn(r.ctx)
		switch {
		case err == nil:
			complete(models.TaskStatusCompleted, nil)
		case errors.Is(err, context.Canceled):
			complete(models.TaskStatusCancelled, err)
		default:
			r.logger.Error().Err(err).Str("task_id", task.ID).Str("task", name).Msg("Task failed")
			complete(models.TaskStatusFailed, err)
		}
	}, func(recovered interface{}) {
		complete(models.TaskStatusFailed, fmt.Errorf("panic: %v", recovered))
	})

	r.logger.Debug().Str("task_id", task.ID).Str("task", name).Msg("Task started")
	return task
}

// Get returns a task by ID
func (r *Registry) Get(id string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	return task, ok
}

// List returns all tasks, oldest first
func (r *Registry) List() []*Task {
	r.mu.Lock()
	list := make([]*Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		list = append(list, task)
	}
	r.mu.Unlock()

	sort.Slice(list, func(i, j int) bool {
		return list[i].StartedAt.Before(list[j].StartedAt)
	})
	return list
}

// Running counts unfinished tasks
func (r *Registry) Running() int {
	count := 0
	for _, task := range r.List() {
		if task.Status() == models.TaskStatusRunning {
			count++
		}
	}
	return count
}

// Wait blocks until every started task has finished or ctx ends
func (r *Registry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel signals every running task to stop
func (r *Registry) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancel()
}

// Shutdown cancels running tasks and waits up to timeout for them to exit
func (r *Registry) Shutdown(timeout time.Duration) error {
	r.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := r.Wait(ctx); err != nil {
		r.logger.Warn().Int("running", r.Running()).Msg("Tasks still running after shutdown timeout")
		return err
	}
	return nil
}
