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
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	once   sync.Once
	logger *zap.Logger
	sugar  *zap.SugaredLogger
)

var ProviderSet = wire.NewSet(ProvideLogger)

// ProvideLogger 初始化全局日志并返回 zap.Logger
func ProvideLogger(conf *Conf) (*zap.Logger, error) {
	return NewLog(conf)
}

// Conf is the [log] section.
type Conf struct {
	Output     string // stdout | file | both
	Format     string // console | json
	Path       string
	Filename   string
	Level      string
	KeepHours  int // 日志保留天数 (lumberjack MaxAge)
	RotateSize int // 单个日志文件最大大小（MB）
	RotateNum  int // 保留的日志文件数量
}

// DefaultConf logs INFO to stdout in console format.
func DefaultConf() *Conf {
	return &Conf{
		Output:     "stdout",
		Format:     "console",
		Path:       "./logs",
		Filename:   defaultFilename,
		Level:      "INFO",
		KeepHours:  7,
		RotateSize: 100,
		RotateNum:  10,
	}
}

func (c *Conf) writesFile() bool {
	return c.Output == "file" || c.Output == "both"
}

// Validate rejects unknown outputs and formats and fills rotation zero values.
func (c *Conf) Validate() error {
	switch c.Output {
	case "", "stdout", "file", "both":
	default:
		return fmt.Errorf("unknown log output %q", c.Output)
	}
	switch c.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	if !c.writesFile() {
		return nil
	}
	if c.Path == "" {
		return fmt.Errorf("log path is required when output is %q", c.Output)
	}
	if c.RotateSize <= 0 {
		c.RotateSize = 100
	}
	if c.RotateNum <= 0 {
		c.RotateNum = 10
	}
	if c.KeepHours <= 0 {
		c.KeepHours = 7
	}
	return nil
}

// NewLog builds the logger and installs it as the package global.
func NewLog(conf *Conf) (*zap.Logger, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	var sinks []zapcore.WriteSyncer
	if conf.Output != "file" {
		sinks = append(sinks, zapcore.Lock(os.Stdout))
	}
	if conf.writesFile() {
		sinks = append(sinks, getFileLogWriter(conf))
	}

	core := zapcore.NewCore(newEncoder(conf.Format), zapcore.NewMultiWriteSyncer(sinks...), parseLogLevel(conf.Level))
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))

	mu.Lock()
	logger = l
	sugar = l.Sugar()
	mu.Unlock()

	return l, nil
}

// Init installs a global logger built from conf.
func Init(conf *Conf) error {
	_, err := NewLog(conf)
	return err
}

// Sync flushes buffered entries. Errors from syncing stdout are ignored.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		_ = logger.Sync()
	}
	return nil
}

// get returns the global logger, installing DefaultConf on first use.
func get() *zap.SugaredLogger {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s != nil {
		return s
	}
	once.Do(func() {
		mu.RLock()
		ready := sugar != nil
		mu.RUnlock()
		if !ready {
			_ = Init(DefaultConf())
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.MessageKey = "msg"
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder

	if format == "json" {
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

// parseLogLevel is case-insensitive and falls back to INFO.
func parseLogLevel(level string) zapcore.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN", "WARNING":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	case "FATAL":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
