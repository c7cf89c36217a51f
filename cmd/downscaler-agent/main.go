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

// Command downscaler-agent races against its replica peers to hold a
// coordination lease, and runs the (out-of-scope) scaling work only while it
// holds it. It never talks to a real cluster API directly: the concrete
// LeaseClient is out of scope for this binary, so it runs against the
// in-memory one to demonstrate and exercise the wiring end to end.
package main

import (
	"context"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/samuel-esp/kube-downscaler/leaderelection"
	"github.com/samuel-esp/kube-downscaler/log"
	"github.com/samuel-esp/kube-downscaler/metrics"
	"github.com/samuel-esp/kube-downscaler/tools/signal"
)

func main() {
	var (
		lockName      = flag.String("lock-name", "downscaler", "name of the coordination lease")
		lockNamespace = flag.String("lock-namespace", "kube-system", "namespace of the coordination lease")
		identity      = flag.String("identity", defaultIdentity(), "this replica's unique, stable identity")
		leaseDuration = flag.Duration("lease-duration", leaderelection.DefaultLeaseDuration, "lease validity window")
		renewDeadline = flag.Duration("renew-deadline", leaderelection.DefaultRenewDeadline, "max time to attempt renewal before yielding")
		retryPeriod   = flag.Duration("retry-period", leaderelection.DefaultRetryPeriod, "base interval between acquire/renew attempts")
		metricsAddr   = flag.String("metrics-addr", ":9090", "address to serve /metrics on")
	)
	flag.Parse()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	var ready int32
	go serveMetrics(*metricsAddr, registry, &ready)

	lock := leaderelection.Lock{Name: *lockName, Namespace: *lockNamespace, Identity: *identity}
	cfg, err := leaderelection.NewConfig(lock,
		leaderelection.WithTiming(*leaseDuration, *renewDeadline, *retryPeriod),
		leaderelection.WithCallbacks(leaderelection.Callbacks{
			OnStartedLeading: func(ctx context.Context) {
				log.Infof("%s started leading, beginning scale reconciliation", *identity)
				m.RecordAcquisition()
				atomic.StoreInt32(&ready, 1)
				runScaler(ctx)
			},
			OnStoppedLeading: func() {
				log.Infof("%s stopped leading", *identity)
				m.RecordLeaseLost()
				atomic.StoreInt32(&ready, 0)
			},
			OnNewLeader: func(holder string) {
				log.Infof("observed new leader: %s", holder)
				m.RecordTransition(holder)
			},
			OnRenewed: func(success bool) {
				m.RecordRenewal(success)
			},
		}),
	)
	if err != nil {
		log.Fatalf("invalid leader election configuration: %v", err)
	}

	client := &leaderelection.InMemoryLeaseClient{}
	adapter := leaderelection.NewAdapter(client)
	elector, err := leaderelection.New(cfg, adapter, time.Now)
	if err != nil {
		log.Fatalf("failed to construct elector: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go signal.WaitExit(cancel)

	runDone := make(chan error, 1)
	go func() { runDone <- elector.Run(ctx) }()

	select {
	case <-ctx.Done():
		resignCtx, resignCancel := context.WithTimeout(context.Background(), *renewDeadline)
		if err := elector.Resign(resignCtx); err != nil {
			log.Errorf("failed to resign on shutdown: %v", err)
		}
		resignCancel()
		<-runDone
	case err := <-runDone:
		if err == nil {
			// Leadership was lost normally (renewal window exhausted after
			// having led); OnStoppedLeading already ran. Nothing left to do
			// but wait for the shutdown signal.
			<-ctx.Done()
			return
		}
		// A fatal adapter error during acquisition (scenario 6: RBAC denial,
		// or any other transport/encoding failure) aborted the engine before
		// it ever became leader. Per spec §6 the host must fall back to
		// leaderless operation rather than hang waiting for a signal.
		log.Errorf("leader election aborted, falling back to leaderless operation: %v", err)
		atomic.StoreInt32(&ready, 1)
		runScaler(ctx)
		atomic.StoreInt32(&ready, 0)
	}
}

// runScaler is the out-of-scope scaling callback. It is contracted to
// return promptly when ctx is cancelled; here it only blocks until ctx is
// cancelled.
func runScaler(ctx context.Context) {
	<-ctx.Done()
}

func serveMetrics(addr string, gatherer prometheus.Gatherer, ready *int32) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(ready) == 1 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	log.IfErr(http.ListenAndServe(addr, mux), "metrics server exited")
}

func defaultIdentity() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}
