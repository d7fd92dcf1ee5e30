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

import (
	"sync/atomic"

	sbase "github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/util"
)

// metricBucketGenerator adapts MetricBucket to the LeapArray's
// BucketGenerator contract: new buckets start zeroed, and a stale bucket
// is recycled in place (not reallocated) so the AtomicBucketWrapArray's
// slot count never changes.
type metricBucketGenerator struct{}

func (metricBucketGenerator) NewEmptyBucket() interface{} {
	return NewMetricBucket()
}

func (metricBucketGenerator) ResetBucketTo(bw *BucketWrap, startTime uint64) *BucketWrap {
	atomic.StoreUint64(&bw.BucketStart, startTime)
	mb := bw.Value.Load().(*MetricBucket)
	mb.reset()
	return bw
}

// SlidingWindowMetric is a LeapArray specialized to MetricBucket,
// providing the pass/block/exception/RT query surface that ClusterNode,
// OriginNode and DefaultNode build their StatNode implementation on top
// of. sampleCount and intervalInMs must divide evenly (LeapArray's own
// invariant); the two instances in practice are 2/1000 (real-time) and
// 60/60000 (minute reporting).
type SlidingWindowMetric struct {
	la          *LeapArray
	sampleCount uint32
	intervalMs  uint32
}

func NewSlidingWindowMetric(sampleCount, intervalInMs uint32) (*SlidingWindowMetric, error) {
	la, err := NewLeapArray(sampleCount, intervalInMs, metricBucketGenerator{})
	if err != nil {
		return nil, err
	}
	return &SlidingWindowMetric{la: la, sampleCount: sampleCount, intervalMs: intervalInMs}, nil
}

func (m *SlidingWindowMetric) currentBucket() *MetricBucket {
	bw, err := m.la.CurrentBucket(metricBucketGenerator{})
	if err != nil || bw == nil {
		return nil
	}
	return bw.Value.Load().(*MetricBucket)
}

func (m *SlidingWindowMetric) AddCount(event sbase.MetricEvent, count int64) {
	mb := m.currentBucket()
	if mb == nil {
		return
	}
	mb.Add(event, count)
}

// Count sums event over every bucket whose start is within one interval
// of now — the "valid bucket" invariant from the leap-array contract.
func (m *SlidingWindowMetric) Count(event sbase.MetricEvent) int64 {
	var sum int64
	for _, bw := range m.la.Values() {
		mb, ok := bw.Value.Load().(*MetricBucket)
		if !ok {
			continue
		}
		sum += mb.Get(event)
	}
	return sum
}

// QPS converts Count(event) into a per-second rate over the window span.
func (m *SlidingWindowMetric) QPS(event sbase.MetricEvent) float64 {
	return float64(m.Count(event)) * 1000.0 / float64(m.intervalMs)
}

// PreviousWindowCount returns the count from the bucket exactly one
// bucket-length behind now, i.e. the bucket preceding the current one.
func (m *SlidingWindowMetric) PreviousWindowCount(event sbase.MetricEvent) int64 {
	now := util.CurrentTimeMillis()
	prevTime := now - uint64(m.intervalMs/m.sampleCount)
	bws := m.la.ValuesConditional(prevTime, func(ws uint64) bool {
		return ws == prevTime-(prevTime%uint64(m.intervalMs/m.sampleCount))
	})
	var sum int64
	for _, bw := range bws {
		mb, ok := bw.Value.Load().(*MetricBucket)
		if !ok {
			continue
		}
		sum += mb.Get(event)
	}
	return sum
}

// MinRT returns the smallest recorded RT across all valid buckets, or the
// configured ceiling if no RT sample has landed yet.
func (m *SlidingWindowMetric) MinRT() int64 {
	var min int64 = -1
	for _, bw := range m.la.Values() {
		mb, ok := bw.Value.Load().(*MetricBucket)
		if !ok {
			continue
		}
		v := mb.MinRt()
		if min < 0 || v < min {
			min = v
		}
	}
	if min < 0 {
		return 0
	}
	return min
}

func (m *SlidingWindowMetric) Reset() {
	for _, bw := range m.la.Values() {
		if mb, ok := bw.Value.Load().(*MetricBucket); ok {
			mb.reset()
		}
	}
}

func (m *SlidingWindowMetric) ValuesConditional(now uint64, predicate func(uint64) bool) []*BucketWrap {
	return m.la.ValuesConditional(now, predicate)
}
