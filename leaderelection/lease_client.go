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
)

// LeaseClient is the out-of-scope collaborator that actually talks to the
// cluster's API server. Nothing in this package knows the on-wire shape of
// the lease resource; LeaseClient implementations own that, and hand the
// engine an opaque Record.
//
// Get returns (nil, nil) for a record that does not exist. Any non-nil error
// is a transport or encoding failure; wrap ErrForbidden (with fmt.Errorf's
// %w) to report an authorization denial specifically.
type LeaseClient interface {
	Get(ctx context.Context, namespace, name string) (*Record, error)
	Create(ctx context.Context, namespace, name string, record Record) error
	Update(ctx context.Context, namespace, name string, record Record) error
}

// Adapter is the Lease Store Adapter: a thin, typed wrapper around a
// LeaseClient that gives the engine the three-state Get outcome (present,
// absent, error) it needs and a tombstone-writing ClearIfHolder used by the
// termination hook.
type Adapter struct {
	Client LeaseClient
}

// NewAdapter wraps client in an Adapter.
func NewAdapter(client LeaseClient) *Adapter {
	return &Adapter{Client: client}
}

// Get fetches the current record. present is false only when the lease does
// not exist yet; err is non-nil for every other failure, including
// authorization denials (test with IsForbidden).
func (a *Adapter) Get(ctx context.Context, namespace, name string) (rec Record, present bool, err error) {
	got, err := a.Client.Get(ctx, namespace, name)
	if err != nil {
		return Record{}, false, err
	}
	if got == nil {
		return Record{}, false, nil
	}
	return *got, true, nil
}

// Create writes a brand-new record with this candidate as holder. It is only
// ever called when Get reported the lease absent.
func (a *Adapter) Create(ctx context.Context, namespace, name, holder string, leaseDurationSeconds int, renewTime time.Time) error {
	return a.Client.Create(ctx, namespace, name, Record{
		Holder:               holder,
		LeaseDurationSeconds: leaseDurationSeconds,
		RenewTime:            renewTime,
	})
}

// Update overwrites the record in place with rec.
func (a *Adapter) Update(ctx context.Context, namespace, name string, rec Record) error {
	return a.Client.Update(ctx, namespace, name, rec)
}

// ClearIfHolder reads the current record and, only if its holder is
// identity, overwrites it with an empty tombstone so a successor can acquire
// immediately instead of waiting for natural expiry. It is a no-op — and
// returns a nil error — when the lease is absent or held by someone else.
func (a *Adapter) ClearIfHolder(ctx context.Context, namespace, name, identity string) error {
	rec, present, err := a.Get(ctx, namespace, name)
	if err != nil {
		return err
	}
	if !present || rec.Holder != identity {
		return nil
	}
	return a.Update(ctx, namespace, name, Record{})
}
