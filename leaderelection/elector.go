// Copyright 2015 The Kubernetes Authors.
// Copyright 2022 xgfone
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
	"fmt"
	"sync/atomic"
	"time"

	"github.com/samuel-esp/kube-downscaler/log"
	"github.com/samuel-esp/kube-downscaler/tools/wait"
)

// Elector is the Election Engine: the acquire -> lead+renew -> stopped state
// machine described by the package doc. One Elector corresponds to one
// candidate's lifetime in the race for a single lock; it is not reused
// across locks.
//
// A candidate only acts on timestamps captured locally to infer the state of
// the election. It does not trust timestamps written into the record by
// another candidate, because they may not come from a clock synchronized
// with its own; it only reacts to the record's value changing. This makes
// the implementation tolerant of arbitrary clock skew between candidates,
// though not of arbitrary clock skew *rate* — the ratio of LeaseDuration to
// RenewDeadline bounds how much faster one candidate's clock may run
// relative to another's before the tolerance breaks down.
type Elector struct {
	config   Config
	adapter  *Adapter
	now      func() time.Time
	observed atomic.Value // observedState

	reportedLeader string
}

type observedState struct {
	record Record
	at     time.Time
}

// New builds an Elector for cfg racing over adapter. now defaults to
// time.Now; tests inject a fake clock to drive expiry deterministically.
func New(cfg Config, adapter *Adapter, now func() time.Time) (*Elector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if adapter == nil {
		return nil, &ConfigError{Field: "adapter", Reason: "must not be nil"}
	}
	if now == nil {
		now = time.Now
	}
	e := &Elector{config: cfg, adapter: adapter, now: now}
	e.setObserved(Record{}, now())
	return e, nil
}

// IsLeader reports whether this candidate's last observed holder is itself.
func (e *Elector) IsLeader() bool {
	rec, _ := e.getObserved()
	return e.isLeader(rec)
}

func (e *Elector) isLeader(rec Record) bool {
	return rec.Holder == e.config.Lock.Identity
}

// GetLeader returns the identity of the last observed holder, or the empty
// string if no record has been observed yet.
func (e *Elector) GetLeader() string {
	rec, _ := e.getObserved()
	return rec.Holder
}

// Run drives the engine until ctx is cancelled, the acquire phase never
// succeeds (in which case Run blocks forever inside the acquire retry loop,
// honoring only ctx), or leadership is acquired and later lost. It is safe
// to call Run exactly once per Elector.
//
// Run never returns an error for a lost lease: per the renewal-window-
// exhausted case, that is normal stop, not failure. It returns a non-nil
// error only from the acquire phase: the first fatal adapter error (an
// authorization denial or any other LeaseClient failure), or ctx's error if
// ctx is cancelled before the lease is acquired. A fatal adapter error during
// the renew phase ends the renewal window like a timeout, and Run then
// returns nil.
func (e *Elector) Run(ctx context.Context) error {
	defer log.WrapPanic()

	acquired, err := e.acquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		return ctx.Err()
	}

	leaderCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.config.Callbacks.OnStartedLeading(leaderCtx)
	}()

	e.renewLoop(ctx)
	cancel()
	e.config.Callbacks.OnStoppedLeading()
	<-done
	return nil
}

// Resign is the Termination Hook. If this candidate is the current holder it
// tombstones the record so a successor may acquire immediately; otherwise it
// is a no-op. It is idempotent and safe to call whether or not Run is still
// executing, and whether or not this candidate ever held the lease.
func (e *Elector) Resign(ctx context.Context) error {
	err := e.adapter.ClearIfHolder(ctx, e.config.Lock.Namespace, e.config.Lock.Name, e.config.Lock.Identity)
	if err != nil {
		e.logError("failed to clear held lock on resignation", err)
		return nil
	}
	return nil
}

// acquire loops tryAcquireOrRenew at retryPeriod cadence (jittered, per
// §4.D.1) until it succeeds or ctx is done.
func (e *Elector) acquire(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.logInfo("attempting to acquire leader lease")
	succeeded := false
	err := wait.JitterUntil(ctx, e.config.RetryPeriod, jitterFactor, func(ctx context.Context) (bool, error) {
		ok, fatal := e.tryAcquireOrRenew(ctx)
		e.maybeReportTransition()
		if fatal != nil {
			return true, fatal
		}
		if ok {
			succeeded = true
			e.logInfo("successfully acquired lease")
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return succeeded, nil
}

// renewLoop implements §4.D.4: within every renewDeadline window the leader
// gets repeated retryPeriod-spaced chances to renew; it yields only after an
// entire window passes without a single successful renewal.
func (e *Elector) renewLoop(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wait.Until(ctx, e.config.RetryPeriod, func(ctx context.Context) (bool, error) {
		deadlineCtx, deadlineCancel := context.WithTimeout(ctx, e.config.RenewDeadline)
		renewed := e.renewWithinDeadline(deadlineCtx)
		deadlineCancel()

		e.maybeReportTransition()
		if e.config.Callbacks.OnRenewed != nil {
			e.config.Callbacks.OnRenewed(renewed)
		}
		if renewed {
			e.logInfo("successfully renewed lease")
			return false, nil
		}
		e.logError("failed to renew lease within the renew deadline", nil)
		cancel()
		return false, nil
	})
}

// renewWithinDeadline retries tryAcquireOrRenew at retryPeriod cadence until
// it succeeds or ctx (bounded by renewDeadline) is done. A fatal error from
// the adapter ends the attempt immediately, same as a timeout: the lease is
// lost either way.
func (e *Elector) renewWithinDeadline(ctx context.Context) bool {
	if ok, fatal := e.tryAcquireOrRenew(ctx); fatal == nil && ok {
		return true
	} else if fatal != nil {
		e.logError("fatal error renewing lease", fatal)
		return false
	}

	ticker := time.NewTicker(e.config.RetryPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			ok, fatal := e.tryAcquireOrRenew(ctx)
			if fatal != nil {
				e.logError("fatal error renewing lease", fatal)
				return false
			}
			if ok {
				return true
			}
		}
	}
}

// tryAcquireOrRenew is the core step of §4.D.2: the single decision
// procedure shared by the acquire and renew phases. The bool result reports
// whether this call acquired or renewed the lease; a non-nil error is always
// fatal (authorization denial or any other adapter failure) and must abort
// the calling loop.
func (e *Elector) tryAcquireOrRenew(ctx context.Context) (bool, error) {
	now := e.now()
	candidate := Record{
		Holder:               e.config.Lock.Identity,
		LeaseDurationSeconds: int(e.config.LeaseDuration / time.Second),
		RenewTime:            now,
	}

	old, present, err := e.adapter.Get(ctx, e.config.Lock.Namespace, e.config.Lock.Name)
	if err != nil {
		return false, e.fatal("failed to retrieve lock", err)
	}

	if !present {
		if err := e.adapter.Create(ctx, e.config.Lock.Namespace, e.config.Lock.Name,
			candidate.Holder, candidate.LeaseDurationSeconds, candidate.RenewTime); err != nil {
			return false, e.fatal("failed to create lock", err)
		}
		e.setObserved(candidate, now)
		return true, nil
	}

	if old.Empty() {
		if err := e.adapter.Update(ctx, e.config.Lock.Namespace, e.config.Lock.Name, candidate); err != nil {
			return false, e.fatal("failed to overwrite malformed lock", err)
		}
		e.setObserved(candidate, now)
		return true, nil
	}

	observedRecord, observedAt := e.getObserved()
	if !observedRecord.Equal(old) {
		e.setObserved(old, now)
		observedRecord, observedAt = old, now
	}

	expiry := observedAt.Add(time.Duration(old.LeaseDurationSeconds) * time.Second)
	if old.Holder != e.config.Lock.Identity && now.Before(expiry) {
		log.Debug().Kv("holder", old.Holder).Kv("expiry", expiry).Print("lock is held and has not yet expired")
		return false, nil
	}

	if err := e.adapter.Update(ctx, e.config.Lock.Namespace, e.config.Lock.Name, candidate); err != nil {
		return false, e.fatal("failed to update lock", err)
	}
	e.setObserved(candidate, now)
	return true, nil
}

// fatal classifies err per §7: an authorization denial gets the RBAC hint,
// everything else is logged plainly. Either way the error it returns is
// always fatal to the caller.
func (e *Elector) fatal(msg string, err error) error {
	if IsForbidden(err) {
		log.Error().Kv("elector", e.config.Lock.Identity).
			Kv("namespace", e.config.Lock.Namespace).
			Kv("name", e.config.Lock.Name).
			Kv("err", err).
			Print("not authorized to access the lock; check the RBAC role bound to this identity")
		return fmt.Errorf("%s: %w", msg, err)
	}
	e.logError(msg, err)
	return fmt.Errorf("%s: %w", msg, err)
}

func (e *Elector) logInfo(msg string) {
	log.Info().Kv("elector", e.config.Lock.Identity).
		Kv("lock", e.config.Lock.Namespace+"/"+e.config.Lock.Name).
		Print(msg)
}

func (e *Elector) logError(msg string, err error) {
	log.Error().Kv("elector", e.config.Lock.Identity).
		Kv("lock", e.config.Lock.Namespace+"/"+e.config.Lock.Name).
		Kv("err", err).
		Print(msg)
}

func (e *Elector) maybeReportTransition() {
	rec, _ := e.getObserved()
	if rec.Holder == e.reportedLeader {
		return
	}
	e.reportedLeader = rec.Holder
	if e.config.Callbacks.OnNewLeader != nil {
		go e.config.Callbacks.OnNewLeader(e.reportedLeader)
	}
}

func (e *Elector) setObserved(rec Record, at time.Time) {
	e.observed.Store(observedState{record: rec, at: at})
}

func (e *Elector) getObserved() (Record, time.Time) {
	s := e.observed.Load().(observedState)
	return s.record, s.at
}
