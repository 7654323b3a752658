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
package metrics

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncCollector_Counters(t *testing.T) {
	c := NewSyncCollector()
	c.RemoteOp("add_member_role", nil)
	c.RemoteOp("add_member_role", errors.New("boom"))
	c.RemoteOp("add_member_role", errors.New("boom"))
	c.AccessOutcome("EVENT_FULL")
	c.Compensated()
	c.JobRun("event-cleanup", 10*time.Millisecond, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.RemoteSync.WithLabelValues("add_member_role", ResultOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.RemoteSync.WithLabelValues("add_member_role", ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EventAccess.WithLabelValues("EVENT_FULL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Compensation))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.JobRuns.WithLabelValues("event-cleanup", ResultOK)))
}

func TestSyncCollector_NilSafe(t *testing.T) {
	var c *SyncCollector
	assert.NotPanics(t, func() {
		c.RemoteOp("x", nil)
		c.AccessOutcome("ok")
		c.Compensated()
		c.JobRun("x", 0, nil)
	})
}

func TestServer_Handler(t *testing.T) {
	s := NewServer(MetricsConfig{})
	c, err := ProvideSyncCollector(s)
	require.NoError(t, err)
	c.RemoteOp("ensure_role", nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "guildsync_remote_sync_total"))

	// disabled server starts as a no-op
	assert.NoError(t, s.Start())
}

func TestServer_DuplicateRegistration(t *testing.T) {
	s := NewServer(MetricsConfig{})
	c := NewSyncCollector()
	require.NoError(t, c.Register(s))
	assert.Error(t, c.Register(s))
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer(MetricsConfig{Enable: true, Host: "127.0.0.1", Port: 0})
	_, err := ProvideSyncCollector(s)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	defer func() { _ = s.Stop(context.Background()) }()

	addr := s.Addr()
	require.NotEmpty(t, addr)
	resp, err := http.Get("http://" + addr + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	taken := NewServer(MetricsConfig{Enable: true, Host: "127.0.0.1", Port: portOf(t, addr)})
	assert.Error(t, taken.Start())
}

func portOf(t *testing.T, addr string) int {
	t.Helper()
	_, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return p
}
