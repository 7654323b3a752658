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

package log

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestDefaultConf(t *testing.T) {
	conf := DefaultConf()
	assert.Equal(t, "stdout", conf.Output)
	assert.Equal(t, "console", conf.Format)
	assert.Equal(t, "INFO", conf.Level)
	assert.Equal(t, "guildsync.log", conf.Filename)
	assert.Equal(t, 7, conf.KeepHours)
}

func TestConf_Validate(t *testing.T) {
	tests := []struct {
		name    string
		conf    *Conf
		wantErr bool
	}{
		{name: "stdout", conf: &Conf{Output: "stdout", Level: "INFO"}},
		{name: "file", conf: &Conf{Output: "file", Path: "/tmp/logs", KeepHours: 7, RotateSize: 100, RotateNum: 10}},
		{name: "file without path", conf: &Conf{Output: "file"}, wantErr: true},
		{name: "file with zero rotation", conf: &Conf{Output: "file", Path: "/tmp/logs"}},
		{name: "both", conf: &Conf{Output: "both", Path: "/tmp/logs", Format: "json"}},
		{name: "unknown output", conf: &Conf{Output: "syslog"}, wantErr: true},
		{name: "unknown format", conf: &Conf{Format: "logfmt"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conf.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.conf.writesFile() {
				assert.Positive(t, tt.conf.RotateSize)
				assert.Positive(t, tt.conf.RotateNum)
				assert.Positive(t, tt.conf.KeepHours)
			}
		})
	}
}

func TestNewLog_File(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLog(&Conf{
		Output:     "file",
		Path:       dir,
		Filename:   "sync.log",
		Level:      "INFO",
		KeepHours:  1,
		RotateSize: 1,
		RotateNum:  3,
	})
	require.NoError(t, err)

	logger.Info("role applied")
	logger.Debug("dropped below level")
	_ = logger.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "sync.log"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(content), "role applied"))
	assert.False(t, strings.Contains(string(content), "dropped below level"))
}

func TestNewLog_JSONFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLog(&Conf{Output: "file", Format: "json", Path: dir, Filename: "sync.json", Level: "debug"})
	require.NoError(t, err)

	logger.Sugar().Infow("event access granted", "eventId", "e1")
	_ = logger.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "sync.json"))
	require.NoError(t, err)
	assert.Contains(t, string(content), `"eventId":"e1"`)
	assert.Contains(t, string(content), `"level":"info"`)
}

func TestGlobalFunctions_AutoInit(t *testing.T) {
	mu.Lock()
	sugar = nil
	logger = nil
	mu.Unlock()
	once = sync.Once{}

	Infow("remote sync failed", "userId", "u1", "role", "MEMBER")
	Warnw("compensation", "eventId", "e1")
	Errorw("database error", "error", "boom")
	Debugw("ignored")

	mu.RLock()
	defer mu.RUnlock()
	assert.NotNil(t, sugar)
}

func TestWithContext(t *testing.T) {
	require.NoError(t, Init(DefaultConf()))

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	assert.NotNil(t, WithContext(ctx))
	assert.NotNil(t, WithContext(context.Background()))
}

func TestSync(t *testing.T) {
	require.NoError(t, Init(DefaultConf()))
	Info("flush")
	assert.NoError(t, Sync())
}

func TestConcurrentLogging(t *testing.T) {
	require.NoError(t, Init(DefaultConf()))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Infow("concurrent", "n", n)
		}(i)
	}
	wg.Wait()
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"DEBUG", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"WARN", zapcore.WarnLevel},
		{"warning", zapcore.WarnLevel},
		{"ERROR", zapcore.ErrorLevel},
		{"FATAL", zapcore.FatalLevel},
		{"INVALID", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func BenchmarkInfow(b *testing.B) {
	_ = Init(DefaultConf())
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Infow("benchmark message", "number", i)
	}
}
