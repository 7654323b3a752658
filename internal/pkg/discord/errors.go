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

package discord

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"

	"github.com/go-arcade/guildsync/internal/engine/guild"
)

// APIError is a non-2xx answer from the guild API.
type APIError struct {
	Status  int
	Code    int
	Message string
	Method  string
	Path    string

	retryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("discord %s %s: %d %s (code %d)", e.Method, e.Path, e.Status, e.Message, e.Code)
	}
	return fmt.Sprintf("discord %s %s: %d", e.Method, e.Path, e.Status)
}

// RetryAfter is the wait the API asked for on a 429.
func (e *APIError) RetryAfter() time.Duration {
	return e.retryAfter
}

// Temporary reports whether repeating the request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return guild.ErrNotFound
	}
	return nil
}

type errorBody struct {
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

func newAPIError(resp *resty.Response) *APIError {
	e := &APIError{
		Status: resp.StatusCode(),
		Method: resp.Request.Method,
		Path:   resp.Request.URL,
	}
	var body errorBody
	if err := sonic.Unmarshal(resp.Body(), &body); err == nil {
		e.Code = body.Code
		e.Message = body.Message
		if body.RetryAfter > 0 {
			e.retryAfter = seconds(body.RetryAfter)
		}
	}
	if v := resp.Header().Get("Retry-After"); v != "" {
		if s, err := strconv.ParseFloat(v, 64); err == nil && s > 0 {
			e.retryAfter = seconds(s)
		}
	}
	return e
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
