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

package repo

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/go-arcade/guildsync/internal/engine/model"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// wrap translates gorm sentinels into repository errors and annotates the rest.
func wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.WithMessage(ErrNotFound, msg)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.WithMessage(ErrDuplicate, msg)
	}
	return errors.Wrap(err, msg)
}

func foldNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = model.FoldName(n)
	}
	return out
}

// NormalizePage clamps page to >= 1 and size to [1, MaxPageSize].
func NormalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}

// SortColumn maps an API sort key onto its column. Unknown keys fall back to sort_order.
func SortColumn(key string) string {
	switch key {
	case "name":
		return "name"
	case "createdAt":
		return "created_at"
	default:
		return "sort_order"
	}
}

// SortDesc reports whether order requests descending sort.
func SortDesc(order string) bool {
	return order == "desc" || order == "DESC"
}
