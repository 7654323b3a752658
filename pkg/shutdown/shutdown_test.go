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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManager_ReverseOrder(t *testing.T) {
	m := NewManager()
	var order []string
	m.Register("db", func(ctx context.Context) error { order = append(order, "db"); return nil })
	m.Register("http", func(ctx context.Context) error { order = append(order, "http"); return errors.New("busy") })
	m.Register("cron", func(ctx context.Context) error { order = append(order, "cron"); return nil })

	err := m.Shutdown(context.Background())
	assert.EqualError(t, err, "busy")
	assert.Equal(t, []string{"cron", "http", "db"}, order)
	assert.True(t, m.IsShuttingDown())

	select {
	case <-m.Wait():
	default:
		t.Fatal("wait channel should be closed")
	}

	assert.NoError(t, m.Shutdown(context.Background()))
	assert.Len(t, order, 3)
}
