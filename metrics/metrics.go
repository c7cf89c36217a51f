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

// Package metrics exposes Prometheus instrumentation for the leader election
// engine: acquisitions, renewals, lost leases, and the current
// leadership state of this replica.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the leader election instrumentation. Create one instance per
// process with New, backed by its own prometheus.Registry, rather than
// registering against prometheus.DefaultRegisterer.
type Metrics struct {
	IsLeader          prometheus.Gauge
	AcquisitionsTotal prometheus.Counter
	RenewalsTotal     prometheus.Counter
	RenewalFailures   prometheus.Counter
	LeasesLostTotal   prometheus.Counter
	TransitionsTotal  *prometheus.CounterVec
}

// New creates and registers the leader election metrics against registry.
func New(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)
	return &Metrics{
		IsLeader: factory.NewGauge(prometheus.GaugeOpts{
			Name: "leader_election_is_leader",
			Help: "1 if this replica currently holds the lease, 0 otherwise.",
		}),
		AcquisitionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "leader_election_acquisitions_total",
			Help: "Total number of times this replica acquired the lease.",
		}),
		RenewalsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "leader_election_renewals_total",
			Help: "Total number of successful lease renewals by this replica.",
		}),
		RenewalFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "leader_election_renewal_failures_total",
			Help: "Total number of renewal windows in which this replica failed to renew the lease.",
		}),
		LeasesLostTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "leader_election_leases_lost_total",
			Help: "Total number of times this replica lost the lease after holding it.",
		}),
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "leader_election_transitions_total",
			Help: "Total number of observed holder transitions, labeled by the new holder.",
		}, []string{"new_holder"}),
	}
}

// SetLeader updates the leadership gauge.
func (m *Metrics) SetLeader(isLeader bool) {
	if isLeader {
		m.IsLeader.Set(1)
		return
	}
	m.IsLeader.Set(0)
}

// RecordAcquisition records a successful lease acquisition.
func (m *Metrics) RecordAcquisition() {
	m.AcquisitionsTotal.Inc()
	m.SetLeader(true)
}

// RecordRenewal records the outcome of one renewal window: success if the
// lease was renewed within the renew deadline, failure if it was not.
func (m *Metrics) RecordRenewal(success bool) {
	if success {
		m.RenewalsTotal.Inc()
		return
	}
	m.RenewalFailures.Inc()
}

// RecordLeaseLost records that this replica stopped leading after having
// held the lease.
func (m *Metrics) RecordLeaseLost() {
	m.LeasesLostTotal.Inc()
	m.SetLeader(false)
}

// RecordTransition records an observed change of holder identity.
func (m *Metrics) RecordTransition(newHolder string) {
	m.TransitionsTotal.WithLabelValues(newHolder).Inc()
}
