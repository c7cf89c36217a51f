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
	"context"
	"testing"
	"time"
)

func validLock() Lock {
	return Lock{Name: "downscaler", Namespace: "kube-system", Identity: "pod-a"}
}

func noopStartedLeading(context.Context) {}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(validLock(), WithCallbacks(Callbacks{OnStartedLeading: noopStartedLeading}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LeaseDuration != DefaultLeaseDuration {
		t.Errorf("LeaseDuration = %v, want %v", cfg.LeaseDuration, DefaultLeaseDuration)
	}
	if cfg.Callbacks.OnStoppedLeading == nil {
		t.Error("expected a default OnStoppedLeading to be installed")
	}
}

func TestNewConfigRejectsMissingCallback(t *testing.T) {
	_, err := NewConfig(validLock())
	if err == nil {
		t.Fatal("expected an error for a missing OnStartedLeading callback")
	}
	cfgErr, ok := err.(*ConfigError)
	if !ok {
		t.Fatalf("expected a *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "callbacks.onStartedLeading" {
		t.Errorf("Field = %q, want %q", cfgErr.Field, "callbacks.onStartedLeading")
	}
}

func TestValidateRejectsBadTiming(t *testing.T) {
	tests := []struct {
		name          string
		leaseDuration time.Duration
		renewDeadline time.Duration
		retryPeriod   time.Duration
		wantField     string
	}{
		{"lease not greater than renew deadline", 10 * time.Second, 10 * time.Second, 2 * time.Second, "leaseDuration"},
		{"renew deadline not greater than jitter*retry", 30 * time.Second, 5 * time.Second, 5 * time.Second, "renewDeadline"},
		{"sub-second lease duration", 500 * time.Millisecond, 200 * time.Millisecond, 100 * time.Millisecond, "leaseDuration"},
		{"sub-second retry period", 30 * time.Second, 20 * time.Second, 500 * time.Millisecond, "retryPeriod"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(validLock(),
				WithTiming(tt.leaseDuration, tt.renewDeadline, tt.retryPeriod),
				WithCallbacks(Callbacks{OnStartedLeading: noopStartedLeading}))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			cfgErr, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("expected a *ConfigError, got %T", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q (reason: %s)", cfgErr.Field, tt.wantField, cfgErr.Reason)
			}
		})
	}
}

func TestValidateRejectsEmptyLockFields(t *testing.T) {
	tests := []struct {
		name string
		lock Lock
	}{
		{"empty name", Lock{Namespace: "ns", Identity: "id"}},
		{"empty namespace", Lock{Name: "name", Identity: "id"}},
		{"empty identity", Lock{Name: "name", Namespace: "ns"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.lock, WithCallbacks(Callbacks{OnStartedLeading: noopStartedLeading}))
			if err == nil {
				t.Fatal("expected a validation error")
			}
		})
	}
}

func TestValidateAcceptsBoundaryTiming(t *testing.T) {
	// renewDeadline must be strictly greater than 1.2 * retryPeriod.
	_, err := NewConfig(validLock(),
		WithTiming(30*time.Second, 13*time.Second, 10*time.Second),
		WithCallbacks(Callbacks{OnStartedLeading: noopStartedLeading}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
