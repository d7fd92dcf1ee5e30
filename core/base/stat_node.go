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

package base

// MetricEvent enumerates the counters a StatNode tracks per bucket.
type MetricEvent int8

const (
	MetricEventPass MetricEvent = iota
	MetricEventBlock
	MetricEventComplete
	MetricEventError
	MetricEventRt
	// MetricEventOccupiedPass counts tokens borrowed from a future bucket
	// by a prioritized (priority-aware) request under the throttling
	// shaper.
	MetricEventOccupiedPass
)

// TimePredicate filters leap-array buckets by their start timestamp.
type TimePredicate func(startTime uint64) bool

// StatNode is the statistics capability shared by every node kind
// (DefaultNode, ClusterNode/ResourceNode, OriginNode). It exposes both
// the short (real-time) sliding window used for rule evaluation and the
// long window used for reporting, plus the live concurrency gauge.
type StatNode interface {
	// AddCount appends n to the given metric's current bucket.
	AddCount(event MetricEvent, count int64)

	// GetCount sums the given metric over all valid buckets of the short
	// window.
	GetCount(event MetricEvent) int64

	// GetSum sums the given metric over all valid buckets of the long
	// (total) window, used for minute-granularity reporting.
	GetSum(event MetricEvent) int64

	GetQPS(event MetricEvent) float64
	GetPreviousQPS(event MetricEvent) float64

	// GetMaxAvg returns the average of event over the long window,
	// expressed per second.
	GetMaxAvg(event MetricEvent) float64

	// MinRT returns the minimum recorded RT (ms) across valid short
	// window buckets; used as a capacity-estimation input by the
	// system-load BBR guard.
	MinRT() float64

	CurrentConcurrency() int32
	IncreaseConcurrency()
	DecreaseConcurrency()

	// MetricsOnCondition returns per-second metric snapshots (long
	// window) whose bucket start timestamp satisfies predicate; used by
	// the metric log aggregator.
	MetricsOnCondition(predicate TimePredicate) []*MetricItem

	Reset()
}

// MetricItemRetriever is implemented by anything that can answer
// "give me your metric snapshots for these timestamps" — ResourceNode
// satisfies this for the metric log aggregator.
type MetricItemRetriever interface {
	MetricsOnCondition(predicate TimePredicate) []*MetricItem
}

// MetricItem is a single second's worth of aggregated metrics for one
// resource, as written to the metric log / exposed to dashboards.
type MetricItem struct {
	Resource       string
	Classification int32
	Timestamp      uint64
	PassQps        uint64
	BlockQps       uint64
	CompleteQps    uint64
	ErrorQps       uint64
	AvgRt          uint64
	OccupiedPassQps uint64
	Concurrency    uint32
}
