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

package flow

import (
	"github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/core/stat"
	metric_exporter "github.com/aegisflow/aegis/exporter/metric"
	"github.com/aegisflow/aegis/logging"
	"github.com/aegisflow/aegis/util"
	"github.com/pkg/errors"
)

const (
	RuleCheckSlotOrder = 2000
)

var (
	DefaultSlot   = &Slot{}
	flowWaitCount = metric_exporter.NewCounter(
		"flow_wait_total",
		"Flow wait count",
		[]string{"resource"})
)

func init() {
	metric_exporter.Register(flowWaitCount)
}

type Slot struct{}

func (s *Slot) Order() uint32 { return RuleCheckSlotOrder }

// Check evaluates every active TrafficShapingController for this
// resource in registration order. A throttling shaper's "should wait"
// verdict suspends the caller inline (the one intentional suspension
// point in the whole slot chain) before the loop moves on to the next
// rule.
func (s *Slot) Check(ctx *base.EntryContext) *base.TokenResult {
	res := ctx.Resource.Name()
	tcs := getTrafficControllerListFor(res)

	for _, tc := range tcs {
		if tc == nil {
			logging.Warn("[FlowSlot Check] nil traffic controller found", "resourceName", res)
			continue
		}
		node, applies := selectNode(tc.Rule(), ctx)
		if !applies {
			continue
		}
		if node == nil {
			logging.FrequentErrorOnce.Do(func() {
				logging.Error(errors.Errorf("nil resource node"), "no resource node for flow rule in FlowSlot.Check()", "rule", tc.Rule())
			})
			continue
		}
		r := tc.PerformChecking(node, ctx.Input.BatchCount, ctx.Input.Flag)
		if r == nil {
			continue
		}
		if r.Status() == base.ResultStatusBlocked {
			return r
		}
		if r.Status() == base.ResultStatusShouldWait {
			if nanosToWait := r.NanosToWait(); nanosToWait > 0 {
				flowWaitCount.Add(float64(ctx.Input.BatchCount), res)
				util.Sleep(nanosToWait)
			}
			continue
		}
	}
	return nil
}

// selectNode resolves the StatNode a rule's threshold is compared
// against, based on the rule's relation strategy. The bool return
// reports whether the rule applies at all: a CHAIN rule whose
// refResource doesn't match the current context name does not.
func selectNode(rule *Rule, ctx *base.EntryContext) (base.StatNode, bool) {
	switch rule.RelationStrategy {
	case AssociatedResource:
		cn := stat.GetResourceNode(rule.RefResource)
		if cn == nil {
			return nil, true
		}
		return cn, true
	case Chain:
		if ctx.ContextName() != rule.RefResource {
			return nil, false
		}
		return ctx.StatNode, true
	default: // Direct
		return selectDirectNode(rule, ctx), true
	}
}

func selectDirectNode(rule *Rule, ctx *base.EntryContext) base.StatNode {
	var cn *stat.ResourceNode
	if dn, ok := ctx.StatNode.(*stat.DefaultNode); ok && dn != nil {
		cn = dn.ClusterNode()
	}
	if cn == nil {
		cn = stat.GetResourceNode(ctx.Resource.Name())
	}
	if cn == nil {
		return nil
	}

	switch rule.limitApp() {
	case base.LimitAppDefault:
		return cn
	case base.LimitAppOther:
		return otherOriginsNode(cn)
	default:
		return cn.GetOrCreateOriginNode(rule.limitApp())
	}
}
