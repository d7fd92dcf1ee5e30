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

package system

import (
	"github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/core/stat"
)

const RuleCheckSlotOrder = 1000

// Slot is the system-load admission gate. It only evaluates Inbound
// traffic; Outbound entries always pass regardless of active rules.
type Slot struct{}

var DefaultSlot = &Slot{}

func (s *Slot) Order() uint32 { return RuleCheckSlotOrder }

func (s *Slot) Check(ctx *base.EntryContext) *base.TokenResult {
	if ctx.Resource.FlowType() != base.Inbound {
		return nil
	}
	node := stat.InboundNode()

	for _, r := range rulesOf(Concurrency) {
		if float64(node.CurrentConcurrency()) > r.TriggerCount {
			return blockedBy(r)
		}
	}
	for _, r := range rulesOf(InboundQPS) {
		if node.GetQPS(base.MetricEventPass) > r.TriggerCount {
			return blockedBy(r)
		}
	}
	for _, r := range rulesOf(AvgRT) {
		completeCount := node.GetCount(base.MetricEventComplete)
		if completeCount <= 0 {
			continue
		}
		avgRt := float64(node.GetCount(base.MetricEventRt)) / float64(completeCount)
		if avgRt > r.TriggerCount {
			return blockedBy(r)
		}
	}
	for _, r := range rulesOf(Load) {
		curLoad := CurrentLoad()
		if curLoad <= r.TriggerCount {
			continue
		}
		// BBR-inspired guard: only block on load if the process is also
		// running hotter than its estimated steady-state capacity;
		// otherwise a transient load spike with plenty of headroom
		// would reject traffic it could actually serve.
		maxQps := node.GetQPS(base.MetricEventPass)
		capacity := EstimatedCapacity(maxQps, node.MinRT())
		if float64(node.CurrentConcurrency()) > capacity {
			return blockedBy(r)
		}
	}
	for _, r := range rulesOf(CPUUsage) {
		if CurrentCPUUsage() > r.TriggerCount {
			return blockedBy(r)
		}
	}
	return nil
}

func blockedBy(r *Rule) *base.TokenResult {
	return base.NewTokenResultBlocked(base.NewBlockError(base.BlockTypeSystemFlow, r.MetricType.String()+" exceeded", r))
}
