// Copyright 2024 xgfone
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package leaderelection

import (
	"errors"
	"strings"
)

// ErrForbidden is the sentinel a LeaseClient wraps (with fmt.Errorf("...: %w",
// ErrForbidden)) to report that the candidate is not authorized to read or
// write the lease. The engine treats it as a fatal, unrecoverable condition
// and logs a distinctive RBAC hint rather than retrying.
var ErrForbidden = errors.New("forbidden")

// IsForbidden reports whether err represents an authorization denial.
//
// It prefers errors.Is against ErrForbidden, the idiomatic path for a
// LeaseClient implementation under our control. As a fallback it also
// recognizes the bare "is forbidden" substring a transport outside our
// control (an HTTP client wrapping a 403 response, for instance) may return
// unwrapped; this mirrors the source's "is forbidden" in str(e).lower()
// check without forcing every collaborator to import this package.
func IsForbidden(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrForbidden) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "is forbidden")
}

// ConfigError reports that a Config failed validation. It carries
// the name of the offending field so a host can log or test against it
// without parsing the message.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "invalid leader election config: " + e.Field + ": " + e.Reason
}
