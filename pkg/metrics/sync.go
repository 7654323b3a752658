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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "guildsync"

// Remote sync results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// SyncCollector groups the counters recorded by the reconciliation engines.
// A nil *SyncCollector is valid and records nothing.
type SyncCollector struct {
	RemoteSync   *prometheus.CounterVec
	EventAccess  *prometheus.CounterVec
	Compensation prometheus.Counter
	JobRuns      *prometheus.CounterVec
	JobDuration  *prometheus.HistogramVec
}

// NewSyncCollector creates the counters without registering them.
func NewSyncCollector() *SyncCollector {
	return &SyncCollector{
		RemoteSync: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_sync_total",
			Help:      "Remote guild operations by operation and result",
		}, []string{"op", "result"}),
		EventAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_access_total",
			Help:      "Event voice access requests by outcome",
		}, []string{"outcome"}),
		Compensation: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compensation_total",
			Help:      "Remote grants rolled back after a local write failure",
		}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job and result",
		}, []string{"job_name", "result"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_run_duration_seconds",
			Help:      "Duration of scheduled job runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		}, []string{"job_name"}),
	}
}

// Collectors returns every collector for registration.
func (c *SyncCollector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.RemoteSync, c.EventAccess, c.Compensation, c.JobRuns, c.JobDuration}
}

// Register adds every counter to s.
func (c *SyncCollector) Register(s *Server) error {
	for _, col := range c.Collectors() {
		if err := s.RegisterCollector(col); err != nil {
			return err
		}
	}
	return nil
}

// RemoteOp records one remote guild call.
func (c *SyncCollector) RemoteOp(op string, err error) {
	if c == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.RemoteSync.WithLabelValues(op, result).Inc()
}

// AccessOutcome records the outcome code of an access request.
func (c *SyncCollector) AccessOutcome(outcome string) {
	if c == nil {
		return
	}
	c.EventAccess.WithLabelValues(outcome).Inc()
}

// Compensated records one compensation run.
func (c *SyncCollector) Compensated() {
	if c == nil {
		return
	}
	c.Compensation.Inc()
}

// JobRun records one scheduled job execution.
func (c *SyncCollector) JobRun(name string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	c.JobRuns.WithLabelValues(name, result).Inc()
	c.JobDuration.WithLabelValues(name).Observe(duration.Seconds())
}
