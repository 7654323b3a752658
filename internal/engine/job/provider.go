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

package job

import (
	"github.com/go-arcade/guildsync/internal/engine/conf"
	"github.com/google/wire"
)

// ProviderSet 提供定时任务依赖
var ProviderSet = wire.NewSet(NewCleanupJob, ProvideScheduler)

func ProvideScheduler(c conf.AppConfig, cleanup *CleanupJob) *Scheduler {
	return NewScheduler(c.Scheduler, cleanup)
}
