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
	"fmt"
	"sync"
)

// InMemoryLeaseClient is a LeaseClient backed by a mutex-guarded map. It
// stands in for the out-of-scope cluster API in tests and in the example
// command; it never imports a real API client, matching the adapter's job of
// treating the remote record as opaque.
//
// A zero InMemoryLeaseClient is ready to use.
type InMemoryLeaseClient struct {
	mu      sync.Mutex
	records map[string]Record

	// Forbidden, when non-empty, makes every call against the matching
	// "namespace/name" key fail with ErrForbidden, for exercising the RBAC
	// path deterministically.
	Forbidden map[string]bool
}

func key(namespace, name string) string { return namespace + "/" + name }

func (c *InMemoryLeaseClient) forbidden(namespace, name string) bool {
	return c.Forbidden != nil && c.Forbidden[key(namespace, name)]
}

// Get implements LeaseClient.
func (c *InMemoryLeaseClient) Get(ctx context.Context, namespace, name string) (*Record, error) {
	if c.forbidden(namespace, name) {
		return nil, fmt.Errorf("leases.coordination.k8s.io %q: %w", name, ErrForbidden)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[key(namespace, name)]
	if !ok || rec.Empty() {
		return nil, nil
	}
	out := rec
	return &out, nil
}

// Create implements LeaseClient.
func (c *InMemoryLeaseClient) Create(ctx context.Context, namespace, name string, record Record) error {
	if c.forbidden(namespace, name) {
		return fmt.Errorf("leases.coordination.k8s.io %q: %w", name, ErrForbidden)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(namespace, name)
	if existing, ok := c.records[k]; ok && !existing.Empty() {
		return fmt.Errorf("lease %s already exists", k)
	}
	if c.records == nil {
		c.records = make(map[string]Record)
	}
	c.records[k] = record
	return nil
}

// Update implements LeaseClient.
func (c *InMemoryLeaseClient) Update(ctx context.Context, namespace, name string, record Record) error {
	if c.forbidden(namespace, name) {
		return fmt.Errorf("leases.coordination.k8s.io %q: %w", name, ErrForbidden)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.records == nil {
		c.records = make(map[string]Record)
	}
	c.records[key(namespace, name)] = record
	return nil
}

// Snapshot returns the current record for namespace/name and whether it is
// present, for use in assertions from tests in other files of this package.
func (c *InMemoryLeaseClient) Snapshot(namespace, name string) (Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[key(namespace, name)]
	return rec, ok && !rec.Empty()
}
