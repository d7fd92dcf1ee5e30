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
	"testing"

	"github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/core/stat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInboundCtx() *base.EntryContext {
	ctx := base.NewEmptyEntryContext()
	ctx.Resource = base.NewResourceWrapper("res", base.ResTypeCommon, base.Inbound)
	return ctx
}

func newOutboundCtx() *base.EntryContext {
	ctx := base.NewEmptyEntryContext()
	ctx.Resource = base.NewResourceWrapper("res", base.ResTypeCommon, base.Outbound)
	return ctx
}

func TestSystemSlotOrder(t *testing.T) {
	assert.EqualValues(t, RuleCheckSlotOrder, DefaultSlot.Order())
}

func TestSystemSlotSkipsOutboundTraffic(t *testing.T) {
	defer LoadRules(nil)
	LoadRules([]*Rule{{MetricType: Concurrency, TriggerCount: 0}})

	assert.Nil(t, DefaultSlot.Check(newOutboundCtx()))
}

func TestSystemSlotPassesWhenNoRulesConfigured(t *testing.T) {
	defer LoadRules(nil)
	LoadRules(nil)

	assert.Nil(t, DefaultSlot.Check(newInboundCtx()))
}

func TestSystemSlotBlocksOnConcurrencyThreshold(t *testing.T) {
	stat.ResetResourceNodeStorageForTest()
	defer stat.ResetResourceNodeStorageForTest()
	defer LoadRules(nil)

	stat.InboundNode().IncreaseConcurrency()
	stat.InboundNode().IncreaseConcurrency()
	LoadRules([]*Rule{{MetricType: Concurrency, TriggerCount: 1}})

	res := DefaultSlot.Check(newInboundCtx())
	require.NotNil(t, res)
	assert.Equal(t, base.BlockTypeSystemFlow, res.BlockError().BlockType())
}

func TestSystemSlotPassesUnderConcurrencyThreshold(t *testing.T) {
	stat.ResetResourceNodeStorageForTest()
	defer stat.ResetResourceNodeStorageForTest()
	defer LoadRules(nil)

	stat.InboundNode().IncreaseConcurrency()
	LoadRules([]*Rule{{MetricType: Concurrency, TriggerCount: 10}})

	assert.Nil(t, DefaultSlot.Check(newInboundCtx()))
}

func TestSystemSlotBlocksOnQPSThreshold(t *testing.T) {
	stat.ResetResourceNodeStorageForTest()
	defer stat.ResetResourceNodeStorageForTest()
	defer LoadRules(nil)

	for i := 0; i < 5; i++ {
		stat.InboundNode().AddCount(base.MetricEventPass, 1)
	}
	LoadRules([]*Rule{{MetricType: InboundQPS, TriggerCount: 0}})

	res := DefaultSlot.Check(newInboundCtx())
	require.NotNil(t, res)
}

func TestSystemSlotAvgRTSkipsWhenNoCompletedCalls(t *testing.T) {
	stat.ResetResourceNodeStorageForTest()
	defer stat.ResetResourceNodeStorageForTest()
	defer LoadRules(nil)

	LoadRules([]*Rule{{MetricType: AvgRT, TriggerCount: 0}})
	assert.Nil(t, DefaultSlot.Check(newInboundCtx()))
}

func TestSystemSlotBlocksOnAvgRTThreshold(t *testing.T) {
	stat.ResetResourceNodeStorageForTest()
	defer stat.ResetResourceNodeStorageForTest()
	defer LoadRules(nil)

	stat.InboundNode().AddCount(base.MetricEventComplete, 1)
	stat.InboundNode().AddCount(base.MetricEventRt, 100)
	LoadRules([]*Rule{{MetricType: AvgRT, TriggerCount: 50}})

	res := DefaultSlot.Check(newInboundCtx())
	require.NotNil(t, res)
}

func TestSystemSlotBlocksOnCPUUsageThreshold(t *testing.T) {
	stat.ResetResourceNodeStorageForTest()
	defer stat.ResetResourceNodeStorageForTest()
	defer LoadRules(nil)

	currentCPUUsage.Store(0.9)
	defer currentCPUUsage.Store(0.0)
	LoadRules([]*Rule{{MetricType: CPUUsage, TriggerCount: 0.5}})

	res := DefaultSlot.Check(newInboundCtx())
	require.NotNil(t, res)
}

func TestSystemSlotLoadGuardRequiresBothLoadAndCapacityExceeded(t *testing.T) {
	stat.ResetResourceNodeStorageForTest()
	defer stat.ResetResourceNodeStorageForTest()
	defer LoadRules(nil)

	currentLoad1.Store(5.0)
	defer currentLoad1.Store(0.0)
	LoadRules([]*Rule{{MetricType: Load, TriggerCount: 1}})

	// Load exceeds the threshold but no traffic is recorded, so the
	// concurrency of 0 does not exceed EstimatedCapacity and the guard
	// must not trip.
	assert.Nil(t, DefaultSlot.Check(newInboundCtx()))
}
