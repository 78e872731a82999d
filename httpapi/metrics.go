/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package httpapi

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes the four Prometheus-compatible series named in §4.6 base:
// trx_total_requests, trx_error_requests, trx_active_requests and
// trx_average_duration_ms. It registers itself against the default
// registry, the same one promhttp.Handler serves in server.go, mirroring
// dolthub-go-mysql-server's pattern of wiring prometheus/client_golang
// collectors directly at the package that owns the thing being measured.
type Metrics struct {
	total   prometheus.Counter
	errors  prometheus.Counter
	active  prometheus.Gauge
	avgMs   prometheus.Gauge
	sumMs   uint64 // whole-milliseconds accumulator, atomic
	count   uint64
}

// NewMetrics returns a fresh Metrics instance. Its collectors are registered
// against the default registry; when collectors of the same names are already
// registered (a second Server in one process), those are reused.
func NewMetrics() *Metrics {
	m := &Metrics{
		total: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trx_total_requests",
			Help: "Total number of procedure requests dispatched.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trx_error_requests",
			Help: "Total number of procedure requests that resulted in an error.",
		}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trx_active_requests",
			Help: "Number of procedure requests currently executing.",
		}),
		avgMs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trx_average_duration_ms",
			Help: "Running average procedure execution duration, in milliseconds.",
		}),
	}
	register := func(c prometheus.Collector) prometheus.Collector {
		if err := prometheus.Register(c); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				return are.ExistingCollector
			}
			panic(err)
		}
		return c
	}
	m.total = register(m.total).(prometheus.Counter)
	m.errors = register(m.errors).(prometheus.Counter)
	m.active = register(m.active).(prometheus.Gauge)
	m.avgMs = register(m.avgMs).(prometheus.Gauge)
	return m
}

// RequestStarted records the start of one procedure dispatch.
func (m *Metrics) RequestStarted() {
	m.total.Inc()
	m.active.Inc()
}

// RequestErrored records that the in-flight dispatch ended in error.
func (m *Metrics) RequestErrored() {
	m.errors.Inc()
}

// RequestFinished records the end of one procedure dispatch and its
// duration, folding it into the running average.
func (m *Metrics) RequestFinished(d time.Duration) {
	m.active.Dec()
	count := atomic.AddUint64(&m.count, 1)
	sum := atomic.AddUint64(&m.sumMs, uint64(d.Milliseconds()))
	m.avgMs.Set(float64(sum) / float64(count))
}
