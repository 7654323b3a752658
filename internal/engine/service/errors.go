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

package service

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/go-arcade/guildsync/internal/engine/repo"
	"github.com/go-arcade/guildsync/pkg/log"
)

// Code is the machine-readable error kind returned to callers.
type Code string

const (
	CodeNotFound                Code = "NOT_FOUND"
	CodeConflict                Code = "CONFLICT"
	CodeValidation              Code = "VALIDATION"
	CodeInvalidTransition       Code = "INVALID_TRANSITION"
	CodeNewbieRoleNotConfigured Code = "NEWBIE_ROLE_NOT_CONFIGURED"
	CodeActorNotPresent         Code = "ACTOR_NOT_PRESENT"

	CodeEventNotFound         Code = "EVENT_NOT_FOUND"
	CodeEventNotActive        Code = "EVENT_NOT_ACTIVE"
	CodeEventTooEarly         Code = "EVENT_TOO_EARLY"
	CodeRemoteIdentityMissing Code = "REMOTE_IDENTITY_MISSING"
	CodeMissingRequiredTags   Code = "MISSING_REQUIRED_TAGS"
	CodeEventFull             Code = "EVENT_FULL"
	CodeDiscordAccessFailed   Code = "DISCORD_ACCESS_FAILED"
	CodeDatabaseError         Code = "DATABASE_ERROR"
	CodeInternalError         Code = "INTERNAL_ERROR"
)

// Error is the typed error every public engine method returns.
// Two Errors match under errors.Is when their codes are equal.
type Error struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrNotFound                = &Error{Code: CodeNotFound, Message: "not found"}
	ErrConflict                = &Error{Code: CodeConflict, Message: "conflict"}
	ErrValidation              = &Error{Code: CodeValidation, Message: "validation failed"}
	ErrInvalidTransition       = &Error{Code: CodeInvalidTransition, Message: "invalid status transition"}
	ErrNewbieRoleNotConfigured = &Error{Code: CodeNewbieRoleNotConfigured, Message: "newbie role is not configured"}
	ErrActorNotPresent         = &Error{Code: CodeActorNotPresent, Message: "user is not a member of the guild"}
	ErrEventNotFound           = &Error{Code: CodeEventNotFound, Message: "event not found"}
	ErrEventNotActive          = &Error{Code: CodeEventNotActive, Message: "event is not active"}
	ErrEventTooEarly           = &Error{Code: CodeEventTooEarly, Message: "event access is not open yet"}
	ErrRemoteIdentityMissing   = &Error{Code: CodeRemoteIdentityMissing, Message: "guild account is not linked"}
	ErrMissingRequiredTags     = &Error{Code: CodeMissingRequiredTags, Message: "missing required roles or tags"}
	ErrEventFull               = &Error{Code: CodeEventFull, Message: "event is full"}
	ErrDiscordAccessFailed     = &Error{Code: CodeDiscordAccessFailed, Message: "guild access update failed"}
	ErrDatabase                = &Error{Code: CodeDatabaseError, Message: "database error"}
	ErrInternal                = &Error{Code: CodeInternalError, Message: "internal error"}
)

// NamesNotFoundError lists every role or tag name that did not resolve.
type NamesNotFoundError struct {
	Kind  string
	Names []string
}

func (e *NamesNotFoundError) Error() string {
	return fmt.Sprintf("%ss not found: %s", e.Kind, strings.Join(e.Names, ", "))
}

func newError(code Code, msg string, details map[string]any) *Error {
	return &Error{Code: code, Message: msg, Details: details}
}

func withCause(e *Error, err error) *Error {
	e.Err = err
	return e
}

func notFound(kind, id string) *Error {
	return newError(CodeNotFound, kind+" not found", map[string]any{kind + "Id": id})
}

func archived(kind, id string) *Error {
	return newError(CodeNotFound, kind+" is archived", map[string]any{kind + "Id": id, "archived": true})
}

func validation(msg string) *Error {
	return newError(CodeValidation, msg, nil)
}

func namesNotFound(kind string, names []string) *Error {
	e := newError(CodeValidation, kind+"s not found", map[string]any{"missing": names})
	e.Err = &NamesNotFoundError{Kind: kind, Names: names}
	return e
}

// dbError keeps an *Error raised inside a transaction, reports unique key
// violations as conflicts and wraps anything else.
func dbError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, repo.ErrDuplicate) {
		return withCause(newError(CodeConflict, "record already exists", nil), err)
	}
	return withCause(newError(CodeDatabaseError, "database error", nil), err)
}

// lookupError maps repo.ErrNotFound to nf and everything else to a database error.
func lookupError(err error, nf *Error) *Error {
	if errors.Is(err, repo.ErrNotFound) {
		return nf
	}
	return dbError(err)
}

// AsError converts any error into an *Error, defaulting to INTERNAL_ERROR.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return withCause(newError(CodeInternalError, "internal error", nil), err)
}

// recoverInto turns a panic in a public method into an INTERNAL_ERROR.
func recoverInto(err *error, op string) {
	if r := recover(); r != nil {
		log.Errorw("panic recovered", "op", op, "panic", r, "stack", string(debug.Stack()))
		*err = newError(CodeInternalError, "internal error", map[string]any{"op": op})
	}
}
