// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package shutdown

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/go-arcade/guildsync/pkg/log"
)

// Hook releases one component during shutdown.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Manager tracks the shutting-down flag and runs registered hooks in reverse
// registration order, so later components stop before the ones they depend on.
type Manager struct {
	shuttingDown atomic.Bool
	mu           sync.Mutex
	hooks        []Hook
	shutdownChan chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		shutdownChan: make(chan struct{}),
	}
}

// Register adds a hook.
func (m *Manager) Register(name string, fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, Hook{Name: name, Fn: fn})
}

func (m *Manager) IsShuttingDown() bool {
	return m.shuttingDown.Load()
}

// Shutdown runs every hook once. Later calls return nil immediately.
// Hook errors are logged and joined; a failing hook does not stop the rest.
func (m *Manager) Shutdown(ctx context.Context) error {
	if !m.shuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	close(m.shutdownChan)

	m.mu.Lock()
	hooks := make([]Hook, len(m.hooks))
	copy(hooks, m.hooks)
	m.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.Fn(ctx); err != nil {
			log.Errorw("shutdown hook failed", "hook", h.Name, "error", err)
			errs = append(errs, err)
			continue
		}
		log.Infow("shutdown hook done", "hook", h.Name)
	}
	return errors.Join(errs...)
}

// Wait returns a channel closed when shutdown starts.
func (m *Manager) Wait() <-chan struct{} {
	return m.shutdownChan
}
