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
	"time"

	"github.com/samuel-esp/kube-downscaler/log"
)

// jitterFactor is the minimum ratio of RenewDeadline to RetryPeriod that the
// config must satisfy; see Config.Validate.
const jitterFactor = 1.2

// Default timing parameters, used by NewConfig when the corresponding field
// is left at its zero value.
const (
	DefaultLeaseDuration = 30 * time.Second
	DefaultRenewDeadline = 20 * time.Second
	DefaultRetryPeriod   = 5 * time.Second
)

// Lock identifies the record a candidate is racing for and who it is.
type Lock struct {
	// Name is the lease's name.
	Name string
	// Namespace is the lease's namespace.
	Namespace string
	// Identity uniquely identifies this candidate, stable across restarts
	// on the same host (a pod or host name, typically).
	Identity string
}

// Callbacks are the leadership lifecycle hooks the host supplies. Only
// OnStartedLeading is required.
type Callbacks struct {
	// OnStartedLeading is run on its own goroutine once the lease has been
	// acquired. The engine cancels the context right before invoking
	// OnStoppedLeading; OnStartedLeading is contracted to return promptly
	// once it observes cancellation, since the engine does not and cannot
	// force it to stop.
	OnStartedLeading func(ctx context.Context)

	// OnStoppedLeading is invoked once the renew loop has given up. If nil,
	// a default that only logs the candidate's identity is used.
	OnStoppedLeading func()

	// OnNewLeader, if set, is invoked whenever the observed holder identity
	// changes, including the first holder ever observed. It runs on its own
	// goroutine and is never required for correctness — it exists for
	// callers that want to drive metrics or UI off leader transitions.
	OnNewLeader func(identity string)

	// OnRenewed, if set, is invoked once per renewLoop iteration with the
	// outcome of that renewal window: true if the lease was successfully
	// renewed within renewDeadline, false if it was not. It runs on the
	// renew loop's own goroutine and is never required for correctness — it
	// exists for callers that want to drive per-renewal metrics.
	OnRenewed func(success bool)
}

// Config is the validated, immutable bundle the engine is constructed from.
type Config struct {
	Lock Lock

	LeaseDuration time.Duration
	RenewDeadline time.Duration
	RetryPeriod   time.Duration

	Callbacks Callbacks
}

// ConfigOption customizes a Config built by NewConfig.
type ConfigOption func(*Config)

// WithTiming overrides the three timing parameters. Zero leaves the default.
func WithTiming(leaseDuration, renewDeadline, retryPeriod time.Duration) ConfigOption {
	return func(c *Config) {
		c.LeaseDuration = leaseDuration
		c.RenewDeadline = renewDeadline
		c.RetryPeriod = retryPeriod
	}
}

// WithCallbacks sets the leadership lifecycle hooks.
func WithCallbacks(cb Callbacks) ConfigOption {
	return func(c *Config) { c.Callbacks = cb }
}

// NewConfig builds a Config for lock, applies defaults to any zero-valued
// timing field, and validates the result. It never exits the process or
// panics on an invalid config — unlike the source, which calls sys.exit —
// because a Go host is expected to decide for itself whether a bad config is
// fatal.
func NewConfig(lock Lock, opts ...ConfigOption) (Config, error) {
	cfg := Config{
		Lock:          lock,
		LeaseDuration: DefaultLeaseDuration,
		RenewDeadline: DefaultRenewDeadline,
		RetryPeriod:   DefaultRetryPeriod,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.LeaseDuration == 0 {
		cfg.LeaseDuration = DefaultLeaseDuration
	}
	if cfg.RenewDeadline == 0 {
		cfg.RenewDeadline = DefaultRenewDeadline
	}
	if cfg.RetryPeriod == 0 {
		cfg.RetryPeriod = DefaultRetryPeriod
	}
	if cfg.Callbacks.OnStoppedLeading == nil {
		identity := cfg.Lock.Identity
		cfg.Callbacks.OnStoppedLeading = func() {
			log.Infof("%s stopped leading", identity)
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the constraints from §3 and §4.C: the lock identity must
// be set, every timing value must be at least a second, LeaseDuration must
// exceed RenewDeadline, RenewDeadline must exceed jitterFactor*RetryPeriod,
// and OnStartedLeading must be set. It never performs I/O.
func (c Config) Validate() error {
	if c.Lock.Name == "" {
		return &ConfigError{Field: "lock.name", Reason: "must not be empty"}
	}
	if c.Lock.Namespace == "" {
		return &ConfigError{Field: "lock.namespace", Reason: "must not be empty"}
	}
	if c.Lock.Identity == "" {
		return &ConfigError{Field: "lock.identity", Reason: "must not be empty"}
	}
	if c.LeaseDuration < time.Second {
		return &ConfigError{Field: "leaseDuration", Reason: "must be at least one second"}
	}
	if c.RenewDeadline < time.Second {
		return &ConfigError{Field: "renewDeadline", Reason: "must be at least one second"}
	}
	if c.RetryPeriod < time.Second {
		return &ConfigError{Field: "retryPeriod", Reason: "must be at least one second"}
	}
	if c.LeaseDuration <= c.RenewDeadline {
		return &ConfigError{Field: "leaseDuration", Reason: "must be greater than renewDeadline"}
	}
	if float64(c.RenewDeadline) <= jitterFactor*float64(c.RetryPeriod) {
		return &ConfigError{Field: "renewDeadline", Reason: "must be greater than jitterFactor(1.2) * retryPeriod"}
	}
	if c.Callbacks.OnStartedLeading == nil {
		return &ConfigError{Field: "callbacks.onStartedLeading", Reason: "must not be nil"}
	}
	return nil
}
