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

package conf

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/go-arcade/guildsync/internal/pkg/discord"
	"github.com/go-arcade/guildsync/pkg/cache"
	"github.com/go-arcade/guildsync/pkg/database"
	"github.com/go-arcade/guildsync/pkg/duration"
	"github.com/go-arcade/guildsync/pkg/http"
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/go-arcade/guildsync/pkg/metrics"
	"github.com/go-arcade/guildsync/pkg/pprof"
)

// SyncConfig tunes the role and tag reconciliation engines.
type SyncConfig struct {
	BatchSize      int
	NewbieRoleName string
}

// EventConfig holds the voice event rules. Durations accept "30m", "2h" or "1d".
type EventConfig struct {
	GracePeriod     string
	DefaultDuration string
	CreateTempRole  bool
}

func (e EventConfig) Grace() time.Duration {
	return duration.Or(e.GracePeriod, 30*time.Minute)
}

func (e EventConfig) Length() time.Duration {
	return duration.Or(e.DefaultDuration, 2*time.Hour)
}

type SchedulerConfig struct {
	Enable      bool
	CleanupSpec string
}

type AppConfig struct {
	Log       log.Conf
	Http      http.Http
	Database  database.Database
	Cache     cache.Config
	Discord   discord.Config
	Sync      SyncConfig
	Event     EventConfig
	Scheduler SchedulerConfig
	Metrics   metrics.MetricsConfig
	Pprof     pprof.PprofConfig
}

var (
	cfg  AppConfig
	mu   sync.RWMutex
	once sync.Once
)

// NewConf loads the file once per process and panics when it cannot.
func NewConf(confFile string) AppConfig {
	once.Do(func() {
		loaded, err := LoadConfigFile(confFile)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})
	return Current()
}

// Current returns the latest loaded configuration, including hot reloads.
func Current() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.path", "./logs")
	v.SetDefault("log.filename", "guildsync.log")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.shutdownTimeout", 10)
	v.SetDefault("cache.driver", "local")
	v.SetDefault("discord.baseUrl", "https://discord.com/api/v10")
	v.SetDefault("discord.timeout", "10s")
	v.SetDefault("sync.batchSize", 10)
	v.SetDefault("sync.newbieRoleName", "NEWBIE")
	v.SetDefault("event.gracePeriod", "30m")
	v.SetDefault("event.defaultDuration", "2h")
	v.SetDefault("scheduler.enable", false)
	v.SetDefault("scheduler.cleanupSpec", "@every 1m")
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 9090)
}

// LoadConfigFile reads a toml file and keeps watching it. A change is applied
// to Current; a file that no longer parses leaves the previous values in place.
func LoadConfigFile(confFile string) (AppConfig, error) {
	var out AppConfig

	config := viper.New()
	config.SetConfigFile(confFile)
	config.SetConfigType("toml")
	config.SetEnvPrefix("GUILDSYNC")
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AutomaticEnv()
	setDefaults(config)
	if err := config.ReadInConfig(); err != nil {
		return out, fmt.Errorf("failed to read configuration file: %w", err)
	}
	if err := config.Unmarshal(&out); err != nil {
		return out, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}

	config.OnConfigChange(func(e fsnotify.Event) {
		var next AppConfig
		if err := config.Unmarshal(&next); err != nil {
			log.Errorw("config reload failed", "file", e.Name, "error", err)
			return
		}
		mu.Lock()
		cfg = next
		mu.Unlock()
		log.Infow("config reloaded", "file", e.Name)
	})
	config.WatchConfig()

	log.Infow("config file loaded", "path", confFile)
	return out, nil
}
