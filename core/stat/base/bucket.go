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
	"github.com/aegisflow/aegis/core/config"
)

// metricEventCount is the number of distinct MetricEvent values tracked
// per bucket; kept in lockstep with sbase.MetricEvent's iota list.
const metricEventCount = 6

// MetricBucket holds the counters for one bucket-interval: pass, block,
// exception, success (complete), RT-sum and a running minimum RT. All
// fields are updated with atomic adds so concurrent writers on the hot
// path never block each other or the reader.
type MetricBucket struct {
	counters [metricEventCount]int64
	minRt    int64
}

func NewMetricBucket() *MetricBucket {
	mb := &MetricBucket{}
	atomic.StoreInt64(&mb.minRt, config.StatisticMaxRt())
	return mb
}

func (mb *MetricBucket) Add(event sbase.MetricEvent, count int64) {
	if event == sbase.MetricEventRt {
		mb.addRt(count)
		return
	}
	atomic.AddInt64(&mb.counters[int32(event)], count)
}

func (mb *MetricBucket) Get(event sbase.MetricEvent) int64 {
	return atomic.LoadInt64(&mb.counters[int32(event)])
}

func (mb *MetricBucket) addRt(rt int64) {
	atomic.AddInt64(&mb.counters[int32(sbase.MetricEventRt)], rt)
	for {
		cur := atomic.LoadInt64(&mb.minRt)
		if rt >= cur {
			return
		}
		if atomic.CompareAndSwapInt64(&mb.minRt, cur, rt) {
			return
		}
	}
}

func (mb *MetricBucket) MinRt() int64 {
	return atomic.LoadInt64(&mb.minRt)
}

func (mb *MetricBucket) reset() *MetricBucket {
	for i := range mb.counters {
		atomic.StoreInt64(&mb.counters[i], 0)
	}
	atomic.StoreInt64(&mb.minRt, config.StatisticMaxRt())
	return mb
}
