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

package safe

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/go-arcade/guildsync/pkg/log"
)

// PanicError is returned by Try when f panicked.
type PanicError struct {
	Name  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: panic: %v", e.Name, e.Value)
}

// Go runs f in a new goroutine; a panic is logged under name and swallowed.
func Go(name string, f func()) {
	go Do(name, f)
}

// Do runs f on the calling goroutine and logs a panic instead of crashing.
func Do(name string, f func()) {
	if err := Try(name, func() error { f(); return nil }); err != nil {
		var pe *PanicError
		if errors.As(err, &pe) {
			log.Errorw("recovered from panic", "task", pe.Name, "panic", pe.Value, "stack", string(pe.Stack))
		}
	}
}

// Try runs f and converts a panic into a *PanicError.
func Try(name string, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Name: name, Value: r, Stack: debug.Stack()}
		}
	}()
	return f()
}
