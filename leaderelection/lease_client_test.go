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

func TestAdapterGetAbsent(t *testing.T) {
	a := NewAdapter(&InMemoryLeaseClient{})
	_, present, err := a.Get(context.Background(), "ns", "name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if present {
		t.Error("expected lease to be absent")
	}
}

func TestAdapterCreateThenGet(t *testing.T) {
	a := NewAdapter(&InMemoryLeaseClient{})
	now := time.Now()
	if err := a.Create(context.Background(), "ns", "name", "A", 30, now); err != nil {
		t.Fatalf("unexpected error creating: %v", err)
	}

	rec, present, err := a.Get(context.Background(), "ns", "name")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !present {
		t.Fatal("expected lease to be present after create")
	}
	if rec.Holder != "A" {
		t.Errorf("holder = %q, want %q", rec.Holder, "A")
	}
}

func TestAdapterGetForbidden(t *testing.T) {
	client := &InMemoryLeaseClient{Forbidden: map[string]bool{"ns/name": true}}
	a := NewAdapter(client)
	_, _, err := a.Get(context.Background(), "ns", "name")
	if !IsForbidden(err) {
		t.Errorf("expected forbidden error, got %v", err)
	}
}

func TestAdapterClearIfHolderNoop(t *testing.T) {
	client := &InMemoryLeaseClient{}
	a := NewAdapter(client)

	// Absent lease: no-op.
	if err := a.ClearIfHolder(context.Background(), "ns", "name", "A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Held by someone else: no-op.
	now := time.Now()
	if err := a.Create(context.Background(), "ns", "name", "B", 30, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.ClearIfHolder(context.Background(), "ns", "name", "A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec, present := client.Snapshot("ns", "name")
	if !present || rec.Holder != "B" {
		t.Errorf("expected lease to remain held by B, got %+v present=%v", rec, present)
	}
}

func TestAdapterClearIfHolderTombstones(t *testing.T) {
	client := &InMemoryLeaseClient{}
	a := NewAdapter(client)
	now := time.Now()
	if err := a.Create(context.Background(), "ns", "name", "A", 30, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.ClearIfHolder(context.Background(), "ns", "name", "A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := client.Snapshot("ns", "name"); present {
		t.Error("expected lease to be tombstoned")
	}
}

func TestAdapterClearIfHolderIdempotent(t *testing.T) {
	client := &InMemoryLeaseClient{}
	a := NewAdapter(client)
	now := time.Now()
	if err := a.Create(context.Background(), "ns", "name", "A", 30, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := a.ClearIfHolder(context.Background(), "ns", "name", "A"); err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
	}
}
