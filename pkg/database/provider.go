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

package database

import (
	"github.com/go-arcade/guildsync/pkg/log"
	"github.com/google/wire"
	"gorm.io/gorm"
)

var ProviderSet = wire.NewSet(ProvideGormDB, ProvideIDatabase)

// ProvideGormDB opens the ledger database; the cleanup closes the pool.
func ProvideGormDB(conf Database) (*gorm.DB, func(), error) {
	db, err := NewDatabase(conf)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := Close(db); err != nil {
			log.Warnw("close database failed", "error", err)
		}
	}
	return db, cleanup, nil
}

func ProvideIDatabase(db *gorm.DB) IDatabase {
	return NewGormDB(db)
}
