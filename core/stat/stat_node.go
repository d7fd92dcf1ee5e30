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

// Package stat implements the statistics engine: the node graph
// (ClusterNode/ResourceNode, OriginNode, DefaultNode) built on top of the
// leap-array sliding windows in core/stat/base, plus the StatPrepareSlot
// and StatSlot implementations that populate and update it.
package stat

import (
	"sync"
	"sync/atomic"

	"github.com/aegisflow/aegis/core/base"
	statbase "github.com/aegisflow/aegis/core/stat/base"
	"github.com/aegisflow/aegis/core/config"
	"github.com/aegisflow/aegis/logging"
	"github.com/aegisflow/aegis/util"
)

func nowMs() uint64 { return util.CurrentTimeMillis() }

// BaseStatNode implements base.StatNode with two sliding windows: a short
// one used for real-time rule evaluation, and a long one used for
// minute-granularity reporting, plus an atomic live-concurrency gauge.
type BaseStatNode struct {
	concurrency int32

	arr      *statbase.SlidingWindowMetric
	arrTotal *statbase.SlidingWindowMetric
}

// NewBaseStatNode builds the pair of sliding windows from the current
// global config (short: config.SampleCount()/config.IntervalMs(); long:
// one-bucket-per-second over config.TotalMetricIntervalMs()).
func NewBaseStatNode() *BaseStatNode {
	arr, err := statbase.NewSlidingWindowMetric(config.SampleCount(), config.IntervalMs())
	if err != nil {
		logging.Error(err, "[NewBaseStatNode] failed to create real-time sliding window, falling back to defaults")
		arr, _ = statbase.NewSlidingWindowMetric(config.DefaultSampleCount, config.DefaultIntervalMs)
	}
	arrTotal, err := statbase.NewSlidingWindowMetric(config.SampleCountTotal(), config.TotalMetricIntervalMs())
	if err != nil {
		logging.Error(err, "[NewBaseStatNode] failed to create total sliding window, falling back to defaults")
		arrTotal, _ = statbase.NewSlidingWindowMetric(config.DefaultSampleCountTotal, config.DefaultTotalMetricIntervalMs)
	}
	return &BaseStatNode{arr: arr, arrTotal: arrTotal}
}

func (n *BaseStatNode) AddCount(event base.MetricEvent, count int64) {
	n.arr.AddCount(event, count)
	n.arrTotal.AddCount(event, count)
}

func (n *BaseStatNode) GetCount(event base.MetricEvent) int64 { return n.arr.Count(event) }
func (n *BaseStatNode) GetSum(event base.MetricEvent) int64   { return n.arrTotal.Count(event) }

func (n *BaseStatNode) GetQPS(event base.MetricEvent) float64 { return n.arr.QPS(event) }

func (n *BaseStatNode) GetPreviousQPS(event base.MetricEvent) float64 {
	return float64(n.arr.PreviousWindowCount(event)) * 1000.0 / float64(config.IntervalMs())
}

func (n *BaseStatNode) GetMaxAvg(event base.MetricEvent) float64 {
	return float64(n.arrTotal.Count(event)) / float64(config.TotalMetricIntervalMs()/1000)
}

func (n *BaseStatNode) MinRT() float64 {
	return float64(n.arr.MinRT())
}

func (n *BaseStatNode) CurrentConcurrency() int32 { return atomic.LoadInt32(&n.concurrency) }
func (n *BaseStatNode) IncreaseConcurrency()       { atomic.AddInt32(&n.concurrency, 1) }
func (n *BaseStatNode) DecreaseConcurrency() {
	for {
		cur := atomic.LoadInt32(&n.concurrency)
		if cur <= 0 {
			return
		}
		if atomic.CompareAndSwapInt32(&n.concurrency, cur, cur-1) {
			return
		}
	}
}

func (n *BaseStatNode) Reset() {
	n.arr.Reset()
	n.arrTotal.Reset()
	atomic.StoreInt32(&n.concurrency, 0)
}

func (n *BaseStatNode) MetricsOnCondition(predicate base.TimePredicate) []*base.MetricItem {
	items := make([]*base.MetricItem, 0, 4)
	for _, bw := range n.arrTotal.ValuesConditional(nowMs(), func(ts uint64) bool { return predicate(ts) }) {
		mb, ok := bw.Value.Load().(interface {
			Get(base.MetricEvent) int64
			MinRt() int64
		})
		if !ok {
			continue
		}
		items = append(items, &base.MetricItem{
			Timestamp:   bw.BucketStart,
			PassQps:     uint64(mb.Get(base.MetricEventPass)),
			BlockQps:    uint64(mb.Get(base.MetricEventBlock)),
			CompleteQps: uint64(mb.Get(base.MetricEventComplete)),
			ErrorQps:    uint64(mb.Get(base.MetricEventError)),
			Concurrency: uint32(n.CurrentConcurrency()),
			AvgRt:       avgRt(mb.Get(base.MetricEventRt), mb.Get(base.MetricEventComplete)),
		})
	}
	return items
}

func avgRt(rtSum, completeCount int64) uint64 {
	if completeCount <= 0 {
		return 0
	}
	return uint64(rtSum / completeCount)
}

// ResourceNode is the ClusterNode: one per resource, aggregating
// statistics across every Context that touches it, and owning a map of
// per-origin OriginNode children.
type ResourceNode struct {
	*BaseStatNode

	resourceName string
	resourceType base.ResourceType

	mu         sync.RWMutex
	originNodes map[string]*BaseStatNode
}

func NewResourceNode(name string, resourceType base.ResourceType) *ResourceNode {
	return &ResourceNode{
		BaseStatNode: NewBaseStatNode(),
		resourceName: name,
		resourceType: resourceType,
		originNodes:  make(map[string]*BaseStatNode),
	}
}

func (r *ResourceNode) ResourceName() string           { return r.resourceName }
func (r *ResourceNode) ResourceType() base.ResourceType { return r.resourceType }

// GetOrCreateOriginNode returns the statistics node of a single origin of
// this resource, creating it on first use. A flow DIRECT rule naming a
// specific limitApp is checked against this node.
func (r *ResourceNode) GetOrCreateOriginNode(origin string) *BaseStatNode {
	r.mu.RLock()
	n, ok := r.originNodes[origin]
	r.mu.RUnlock()
	if ok {
		return n
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok = r.originNodes[origin]; ok {
		return n
	}
	n = NewBaseStatNode()
	r.originNodes[origin] = n
	return n
}

func (r *ResourceNode) OriginNode(origin string) (*BaseStatNode, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.originNodes[origin]
	return n, ok
}

func (r *ResourceNode) Origins() map[string]*BaseStatNode {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cp := make(map[string]*BaseStatNode, len(r.originNodes))
	for k, v := range r.originNodes {
		cp[k] = v
	}
	return cp
}

// DefaultNode is one per (resource, Context) pair: it shares the
// resource's ResourceNode for aggregation but keeps its own sliding
// windows so each entry point into the resource can be inspected
// independently (the invocation tree under a Context).
type DefaultNode struct {
	*BaseStatNode

	resourceName string
	clusterNode  *ResourceNode

	mu       sync.RWMutex
	children map[string]*DefaultNode
}

func NewDefaultNode(resourceName string) *DefaultNode {
	return &DefaultNode{
		BaseStatNode: NewBaseStatNode(),
		resourceName: resourceName,
		children:     make(map[string]*DefaultNode),
	}
}

func (d *DefaultNode) ResourceName() string { return d.resourceName }

func (d *DefaultNode) ClusterNode() *ResourceNode { return d.clusterNode }
func (d *DefaultNode) SetClusterNode(cn *ResourceNode) { d.clusterNode = cn }

func (d *DefaultNode) AddChild(childResource string) *DefaultNode {
	d.mu.RLock()
	c, ok := d.children[childResource]
	d.mu.RUnlock()
	if ok {
		return c
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if c, ok = d.children[childResource]; ok {
		return c
	}
	c = NewDefaultNode(childResource)
	d.children[childResource] = c
	return c
}
