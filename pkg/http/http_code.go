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
package http

var (
	RequestParameterParsingFailed = failed(4001, "Request parameter parsing failed")

	// Unauthorized 401
	Unauthorized         = failed(4401, "Unauthorized")
	AuthorizationEmpty   = failed(4404, "Authorization is empty")
	InvalidToken         = failed(4405, "Invalid token")
	TokenExpired         = failed(4407, "Token is expired")
	TokenFormatIncorrect = failed(4408, "Token format is incorrect")

	// BadRequest 400
	BadRequest       = failed(4000, "Bad request")
	NotFound         = failed(4004, "Not found")
	MethodNotAllowed = failed(4005, "Method not allowed")
	Conflict         = failed(4009, "Conflict")

	// business rule rejections
	EventNotFound          = failed(4101, "Event not found")
	EventNotActive         = failed(4102, "Event is not active")
	EventTooEarly          = failed(4103, "Event access window is not open yet")
	RemoteIdentityMissing  = failed(4104, "Remote identity is not linked")
	MissingRequiredTags    = failed(4105, "Missing required roles or tags")
	EventFull              = failed(4106, "Event is full")
	InvalidTransition      = failed(4107, "Invalid status transition")
	NewbieRoleNotConfigure = failed(4108, "Newbie role is not configured")
	ActorNotPresent        = failed(4109, "User is not a guild member")
	ValidationFailed       = failed(4110, "Validation failed")

	InternalError       = failed(5000, "Internal error, please contact the administrator")
	DatabaseError       = failed(5001, "Database error")
	DiscordAccessFailed = failed(5002, "Discord access failed")
)

var (
	Success = success(200, "Request Success")
)

func failed(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}

func success(code int, msg string) *Response {
	return &Response{
		Code: code,
		Msg:  msg,
	}
}
