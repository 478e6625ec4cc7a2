// Package testutil provides an in-memory storage.Store for tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"termtodo/internal/storage"
)

// Call records one mutating gateway call.
type Call struct {
	Op   string
	Name string
	ID   int64
}

// FakeStore is an in-memory storage.Store. It records every mutating call
// and can be told to fail.
type FakeStore struct {
	mu     sync.Mutex
	nextID int64
	tasks  []storage.Task
	calls  []Call
	closed bool

	// Err, when set, is returned by every operation.
	Err error
}

var _ storage.Store = (*FakeStore)(nil)

func NewFakeStore() *FakeStore {
	return &FakeStore{nextID: 1}
}

// Seed appends a task with the next id.
func (f *FakeStore) Seed(name string, completed bool) storage.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := storage.Task{ID: f.nextID, Name: name, Completed: completed}
	f.nextID++
	f.tasks = append(f.tasks, t)
	return t
}

func (f *FakeStore) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

func (f *FakeStore) Tasks() []storage.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.Task(nil), f.tasks...)
}

func (f *FakeStore) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeStore) AddTask(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "add", Name: name})
	if f.Err != nil {
		return f.Err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.ErrEmptyName
	}
	f.tasks = append(f.tasks, storage.Task{ID: f.nextID, Name: name})
	f.nextID++
	return nil
}

func (f *FakeStore) ListTasks(ctx context.Context) ([]storage.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return append([]storage.Task{}, f.tasks...), nil
}

func (f *FakeStore) FindTasks(ctx context.Context, name string) ([]storage.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	name = strings.TrimSpace(name)
	out := []storage.Task{}
	for _, t := range f.tasks {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *FakeStore) ToggleTask(ctx context.Context, name string) error {
	return f.update("toggle", name, func(t *storage.Task) { t.Completed = !t.Completed })
}

func (f *FakeStore) CompleteTask(ctx context.Context, name string) error {
	return f.update("complete", name, func(t *storage.Task) { t.Completed = true })
}

func (f *FakeStore) update(op, name string, fn func(*storage.Task)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	name = strings.TrimSpace(name)
	f.calls = append(f.calls, Call{Op: op, Name: name})
	if f.Err != nil {
		return f.Err
	}
	for i := range f.tasks {
		if f.tasks[i].Name == name {
			fn(&f.tasks[i])
		}
	}
	return nil
}

func (f *FakeStore) DeleteTask(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: "delete", ID: id})
	if f.Err != nil {
		return f.Err
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", storage.ErrNotFound, id)
}

func (f *FakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
