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
	"github.com/google/wire"

	"github.com/go-arcade/guildsync/pkg/log"
)

// ProviderSet 提供配置及各组件的子配置
var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideLogConf,
	wire.FieldsOf(new(AppConfig), "Http", "Database", "Cache", "Discord", "Metrics", "Pprof"),
)

// ProvideConf 提供完整配置实例
func ProvideConf(configFile string) AppConfig {
	return NewConf(configFile)
}

func ProvideLogConf(c AppConfig) *log.Conf {
	l := c.Log
	return &l
}
