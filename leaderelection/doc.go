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

// Package leaderelection coordinates a set of replicas racing to hold a
// single named lock stored behind a LeaseClient, so that exactly one of them
// performs work at a time.
//
// The pieces: Record is the shared state of the lock. Adapter wraps a
// LeaseClient with the get/create/update/clear-if-holder operations the
// engine needs. Config validates the timing parameters and carries the
// lifecycle callbacks. Elector runs the acquire/renew/stop state machine and
// exposes Resign for graceful handover. See Elector's own doc comment for
// how it tolerates clock skew between candidates.
package leaderelection
