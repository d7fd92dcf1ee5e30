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

package circuitbreaker

import (
	"sync/atomic"

	statbase "github.com/aegisflow/aegis/core/stat/base"
)

// counter is the per-bucket payload a breaker's sliding window stores:
// total completed calls, how many were classified as exceptions, and how
// many were classified as slow (RT above the AVG_RT threshold).
type counter struct {
	total int64
	error int64
	slow  int64
}

func (c *counter) addTotal(n int64) { atomic.AddInt64(&c.total, n) }
func (c *counter) addError(n int64) { atomic.AddInt64(&c.error, n) }
func (c *counter) addSlow(n int64)  { atomic.AddInt64(&c.slow, n) }

func (c *counter) reset() {
	atomic.StoreInt64(&c.total, 0)
	atomic.StoreInt64(&c.error, 0)
	atomic.StoreInt64(&c.slow, 0)
}

type counterGenerator struct{}

func (counterGenerator) NewEmptyBucket() interface{} { return &counter{} }

func (counterGenerator) ResetBucketTo(bw *statbase.BucketWrap, startTime uint64) *statbase.BucketWrap {
	atomic.StoreUint64(&bw.BucketStart, startTime)
	if c, ok := bw.Value.Load().(*counter); ok {
		c.reset()
	} else {
		bw.Value.Store(&counter{})
	}
	return bw
}

// slidingCounter aggregates total/error/slow call counts over
// statIntervalMs, the window each breaker's CLOSED-state trigger check
// reads from.
type slidingCounter struct {
	la *statbase.LeapArray
}

func newSlidingCounter(statIntervalMs uint32) (*slidingCounter, error) {
	sampleCount := uint32(2)
	for statIntervalMs%sampleCount != 0 {
		sampleCount--
		if sampleCount == 0 {
			sampleCount = 1
			break
		}
	}
	la, err := statbase.NewLeapArray(sampleCount, statIntervalMs, counterGenerator{})
	if err != nil {
		return nil, err
	}
	return &slidingCounter{la: la}, nil
}

func (s *slidingCounter) current() *counter {
	bw, err := s.la.CurrentBucket(counterGenerator{})
	if err != nil || bw == nil {
		return nil
	}
	c, _ := bw.Value.Load().(*counter)
	return c
}

func (s *slidingCounter) recordPass(rt uint64, slowThresholdMs float64, isError bool) {
	c := s.current()
	if c == nil {
		return
	}
	c.addTotal(1)
	if isError {
		c.addError(1)
	}
	if slowThresholdMs > 0 && float64(rt) > slowThresholdMs {
		c.addSlow(1)
	}
}

func (s *slidingCounter) totals() (total, errorCount, slowCount int64) {
	for _, bw := range s.la.Values() {
		c, ok := bw.Value.Load().(*counter)
		if !ok {
			continue
		}
		total += atomic.LoadInt64(&c.total)
		errorCount += atomic.LoadInt64(&c.error)
		slowCount += atomic.LoadInt64(&c.slow)
	}
	return
}

func (s *slidingCounter) reset() {
	for _, bw := range s.la.Values() {
		if c, ok := bw.Value.Load().(*counter); ok {
			c.reset()
		}
	}
}
