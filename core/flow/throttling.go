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
	"sync/atomic"

	"github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/util"
)

// throttlingChecker implements the leaky-bucket shaper: it spaces
// admitted requests 1000/threshold ms apart, queueing callers up to
// MaxQueueingTimeMs before rejecting them outright.
type throttlingChecker struct {
	rule *Rule

	latestPassedTimeMs int64 // atomic, ms
}

func newThrottlingChecker(rule *Rule) *throttlingChecker {
	return &throttlingChecker{rule: rule, latestPassedTimeMs: int64(util.CurrentTimeMillis())}
}

func (c *throttlingChecker) DoCheck(node base.StatNode, acquireCount uint32, threshold float64) *base.TokenResult {
	if threshold <= 0 {
		return base.NewTokenResultBlocked(base.NewBlockError(base.BlockTypeFlow, "qps exceeded", nil))
	}
	costMs := int64(float64(acquireCount) * 1000.0 / threshold)

	for {
		now := int64(util.CurrentTimeMillis())
		latest := atomic.LoadInt64(&c.latestPassedTimeMs)
		expectedTime := latest + costMs

		if expectedTime <= now {
			if atomic.CompareAndSwapInt64(&c.latestPassedTimeMs, latest, now) {
				return nil
			}
			continue
		}

		waitMs := expectedTime - now
		if uint32(waitMs) > c.rule.MaxQueueingTimeMs {
			return base.NewTokenResultBlocked(base.NewBlockError(base.BlockTypeFlow, "queueing time exceeded", nil))
		}
		if !atomic.CompareAndSwapInt64(&c.latestPassedTimeMs, latest, expectedTime) {
			continue
		}
		return base.NewTokenResultShouldWait(waitMs * int64(1e6))
	}
}
