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

// Package api is the business-facing surface of the engine: SphU/SphO
// entry points, the Entry handle they return, and Tracer for attributing
// exceptions to an in-flight entry. InitDefault wires the canonical slot
// chain once per process.
package api

import (
	"sync"

	"github.com/aegisflow/aegis/core/authority"
	"github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/core/circuitbreaker"
	"github.com/aegisflow/aegis/core/flow"
	metriclog "github.com/aegisflow/aegis/core/log/metric"
	"github.com/aegisflow/aegis/core/stat"
	"github.com/aegisflow/aegis/core/system"
	metric_exporter "github.com/aegisflow/aegis/exporter/metric"
	"github.com/aegisflow/aegis/logging"
)

var (
	globalChain     *base.SlotChain
	initDefaultOnce sync.Once
)

// InitDefault builds the canonical slot chain — node-selection,
// cluster-building, logging, statistics, authority, system, flow, degrade
// — and starts the background system-load sampler. Safe to call more than
// once; only the first call has any effect.
func InitDefault() error {
	initDefaultOnce.Do(func() {
		globalChain = newDefaultSlotChain()
		system.InitSystemStatCollector()
		metric_exporter.InitMetricExporter()
		if err := metriclog.InitTask(); err != nil {
			logging.Error(err, "[InitDefault] failed to start metric log aggregator")
		}
	})
	return nil
}

func newDefaultSlotChain() *base.SlotChain {
	sc := base.NewSlotChain()

	sc.AddStatPrepareSlot(stat.DefaultNodeSelectorSlot)
	sc.AddStatPrepareSlot(stat.DefaultClusterBuilderSlot)

	sc.AddRuleCheckSlot(authority.DefaultSlot)
	sc.AddRuleCheckSlot(system.DefaultSlot)
	sc.AddRuleCheckSlot(flow.DefaultSlot)
	sc.AddRuleCheckSlot(circuitbreaker.DefaultSlot)

	sc.AddStatSlot(stat.DefaultLogSlot)
	sc.AddStatSlot(stat.DefaultSlot)
	sc.AddStatSlot(circuitbreaker.DefaultStatSlot)

	return sc
}

// currentChain returns the process-wide slot chain, initializing it with
// defaults on first use so callers that skip an explicit InitDefault still
// get a working engine.
func currentChain() *base.SlotChain {
	InitDefault()
	return globalChain
}
