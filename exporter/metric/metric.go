// Copyright 1999-2020 Alibaba Group Holding Ltd.
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

// Package metric exposes the engine's own operational counters (entries
// handled, flow-shaper waits) to Prometheus.
// This is metadata about the engine's behavior, distinct from the
// per-resource business metrics the statistics engine computes for rule
// evaluation.
package metric

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Counter is a thin wrapper over a prometheus.CounterVec that defers
// registration until Register is called, so packages can declare their
// counters at init time without requiring a live registry yet.
type Counter struct {
	vec *prometheus.CounterVec
}

func NewCounter(name, help string, labelNames []string) *Counter {
	return &Counter{
		vec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: name,
			Help: help,
		}, labelNames),
	}
}

func (c *Counter) Add(delta float64, labelValues ...string) {
	c.vec.WithLabelValues(labelValues...).Add(delta)
}

func (c *Counter) Collector() prometheus.Collector { return c.vec }

var (
	mu        sync.Mutex
	pending   []*Counter
	registered bool
)

// Register records c for export. Until InitMetricExporter is called the
// counters are simply buffered, so package-level init() functions can
// call Register before any registry exists.
func Register(c *Counter) {
	mu.Lock()
	defer mu.Unlock()
	pending = append(pending, c)
	if registered {
		prometheus.DefaultRegisterer.Register(c.Collector())
	}
}

// InitMetricExporter registers every counter collected so far (and every
// future Register call) against the default Prometheus registry. Calling
// it more than once is a no-op.
func InitMetricExporter() {
	mu.Lock()
	defer mu.Unlock()
	if registered {
		return
	}
	registered = true
	for _, c := range pending {
		prometheus.DefaultRegisterer.Register(c.Collector())
	}
}
