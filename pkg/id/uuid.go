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

package id

import (
	"github.com/google/uuid"
)

// GetUUID returns a random v4 uuid string. Ledger rows, audit entries and
// request ids all use it.
func GetUUID() string {
	return uuid.NewString()
}

// IsUUID reports whether s parses as a uuid.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}
