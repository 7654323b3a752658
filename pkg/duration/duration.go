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

// Package duration parses the human durations used in configuration files.
package duration

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var (
	unitPattern = regexp.MustCompile(`^(\d+)([dw])$`)

	ErrInvalidFormat = errors.New("invalid duration format")
)

var units = map[string]time.Duration{
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

// Parse accepts everything time.ParseDuration accepts plus whole days ("3d")
// and weeks ("1w").
func Parse(s string) (time.Duration, error) {
	if s == "" {
		return 0, ErrInvalidFormat
	}
	if m := unitPattern.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
		}
		return time.Duration(n) * units[m[2]], nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
	}
	return d, nil
}

// Or parses s and returns fallback when s is empty, malformed or not positive.
func Or(s string, fallback time.Duration) time.Duration {
	d, err := Parse(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
