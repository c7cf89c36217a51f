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
	"testing"
	"time"
)

func TestRecordEmpty(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		rec  Record
		want bool
	}{
		{"zero value", Record{}, true},
		{"missing holder", Record{LeaseDurationSeconds: 30, RenewTime: now}, true},
		{"missing duration", Record{Holder: "a", RenewTime: now}, true},
		{"missing renew time", Record{Holder: "a", LeaseDurationSeconds: 30}, true},
		{"well formed", Record{Holder: "a", LeaseDurationSeconds: 30, RenewTime: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Empty(); got != tt.want {
				t.Errorf("Empty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecordEqual(t *testing.T) {
	now := time.Now()
	a := Record{Holder: "a", LeaseDurationSeconds: 30, RenewTime: now}
	b := Record{Holder: "a", LeaseDurationSeconds: 30, RenewTime: now}
	c := Record{Holder: "b", LeaseDurationSeconds: 30, RenewTime: now}

	if !a.Equal(b) {
		t.Error("expected equal records to compare equal")
	}
	if a.Equal(c) {
		t.Error("expected records with different holders to compare unequal")
	}
}
