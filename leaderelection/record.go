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

import "time"

// Record is the shared state of the coordination lease: who holds it, for
// how long, and when it was last renewed.
//
// A Record is an immutable value; nothing in this package mutates one in
// place, it only ever replaces an Elector's observed copy wholesale.
type Record struct {
	// Holder is the identity that currently owns the lease.
	//
	// Empty means no one owns the lease (a tombstone), and any candidate may
	// acquire it.
	Holder string

	// LeaseDurationSeconds is how long, after RenewTime, the lease stays
	// valid in the observer's clock.
	LeaseDurationSeconds int

	// RenewTime is the instant the holder last wrote this record, as
	// reported by the writer. The engine never uses this value for expiry
	// math directly; see Elector's observedAt.
	RenewTime time.Time
}

// Empty reports whether r is missing any of the three fields that make up a
// well-formed record. A record failing this check is treated as absent and
// is safe to overwrite unconditionally.
func (r Record) Empty() bool {
	return r.Holder == "" || r.LeaseDurationSeconds == 0 || r.RenewTime.IsZero()
}

// Equal reports whether r and other carry the same holder, duration and
// renew time. It is the one place the engine compares two Records, used to
// detect that some other candidate wrote the record since it was last seen.
func (r Record) Equal(other Record) bool {
	return r.Holder == other.Holder &&
		r.LeaseDurationSeconds == other.LeaseDurationSeconds &&
		r.RenewTime.Equal(other.RenewTime)
}
