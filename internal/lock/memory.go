package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/maraichr/coursesync/internal/syncer"
)

// Memory is a process-local Locker for tests and single-process tools.
type Memory struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{held: make(map[string]struct{})}
}

func (m *Memory) TryLock(_ context.Context, name string) (syncer.Lock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.held[name]; ok {
		return nil, nil
	}
	m.held[name] = struct{}{}
	return &memoryLock{m: m, name: name}, nil
}

type memoryLock struct {
	m        *Memory
	name     string
	released bool
}

func (l *memoryLock) Name() string { return l.name }

func (l *memoryLock) Release(_ context.Context) error {
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	if l.released {
		return fmt.Errorf("lock %s already released", l.name)
	}
	l.released = true
	delete(l.m.held, l.name)
	return nil
}
