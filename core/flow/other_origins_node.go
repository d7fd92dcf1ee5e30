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
)

// otherStatNode is the read-only view a DIRECT rule with limitApp="other"
// checks against: the sum of every origin touching the resource that does
// NOT have a rule of its own naming it specifically. It is computed fresh
// on every check rather than maintained incrementally, since the set of
// "named" origins can change as rules are reloaded.
type otherStatNode struct {
	cn     *stat.ResourceNode
	except map[string]struct{}
}

// otherOriginsNode builds the aggregate view for cn, excluding whichever
// origins currently have a specific-limitApp rule against this resource.
func otherOriginsNode(cn *stat.ResourceNode) base.StatNode {
	except := make(map[string]struct{})
	for _, r := range getTrafficControllerListFor(cn.ResourceName()) {
		limitApp := r.Rule().limitApp()
		if limitApp != base.LimitAppDefault && limitApp != base.LimitAppOther {
			except[limitApp] = struct{}{}
		}
	}
	return &otherStatNode{cn: cn, except: except}
}

func (o *otherStatNode) included() []*base.StatNode {
	origins := o.cn.Origins()
	nodes := make([]*base.StatNode, 0, len(origins))
	for origin, n := range origins {
		if _, skip := o.except[origin]; skip {
			continue
		}
		var sn base.StatNode = n
		nodes = append(nodes, &sn)
	}
	return nodes
}

func (o *otherStatNode) AddCount(event base.MetricEvent, count int64) {
	// The aggregate view has no storage of its own; writes land on the
	// per-origin nodes directly via the statistic slot.
}

func (o *otherStatNode) GetCount(event base.MetricEvent) int64 {
	var sum int64
	for _, n := range o.included() {
		sum += (*n).GetCount(event)
	}
	return sum
}

func (o *otherStatNode) GetSum(event base.MetricEvent) int64 {
	var sum int64
	for _, n := range o.included() {
		sum += (*n).GetSum(event)
	}
	return sum
}

func (o *otherStatNode) GetQPS(event base.MetricEvent) float64 {
	var sum float64
	for _, n := range o.included() {
		sum += (*n).GetQPS(event)
	}
	return sum
}

func (o *otherStatNode) GetPreviousQPS(event base.MetricEvent) float64 {
	var sum float64
	for _, n := range o.included() {
		sum += (*n).GetPreviousQPS(event)
	}
	return sum
}

func (o *otherStatNode) GetMaxAvg(event base.MetricEvent) float64 {
	var sum float64
	for _, n := range o.included() {
		sum += (*n).GetMaxAvg(event)
	}
	return sum
}

func (o *otherStatNode) MinRT() float64 {
	min := -1.0
	for _, n := range o.included() {
		v := (*n).MinRT()
		if min < 0 || v < min {
			min = v
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func (o *otherStatNode) CurrentConcurrency() int32 {
	var sum int32
	for _, n := range o.included() {
		sum += (*n).CurrentConcurrency()
	}
	return sum
}

func (o *otherStatNode) IncreaseConcurrency() {}
func (o *otherStatNode) DecreaseConcurrency() {}

func (o *otherStatNode) MetricsOnCondition(predicate base.TimePredicate) []*base.MetricItem {
	return nil
}

func (o *otherStatNode) Reset() {}
