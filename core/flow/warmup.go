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
	"github.com/aegisflow/aegis/core/config"
	"github.com/aegisflow/aegis/util"
)

// warmUpCalculator models the token-bucket warm-up shaper: the allowed
// QPS ramps from threshold/coldFactor up to threshold over
// WarmUpPeriodSec of sustained traffic.
type warmUpCalculator struct {
	rule *Rule

	coldFactor    float64
	warningToken  float64
	maxToken      float64
	slope         float64

	storedTokens   int64 // atomic, scaled by 1e6 for fractional precision
	lastFilledMs   int64 // atomic
}

func newWarmUpCalculator(rule *Rule) *warmUpCalculator {
	coldFactor := float64(rule.WarmUpColdFactor)
	if coldFactor <= 1 {
		coldFactor = float64(config.WarmUpColdFactor())
	}
	warmUpPeriodSec := rule.WarmUpPeriodSec
	if warmUpPeriodSec == 0 {
		warmUpPeriodSec = 10
	}
	warningToken := (coldFactor - 1) * (float64(warmUpPeriodSec) * rule.Count) / (coldFactor)
	maxToken := warningToken + 2*float64(warmUpPeriodSec)*rule.Count/(coldFactor+1)
	slope := (coldFactor - 1) / rule.Count / (maxToken - warningToken)

	w := &warmUpCalculator{
		rule:         rule,
		coldFactor:   coldFactor,
		warningToken: warningToken,
		maxToken:     maxToken,
		slope:        slope,
	}
	// Start fully warmed down: stored tokens at the maximum, so the
	// first burst of traffic sees the cold (slow) rate.
	atomic.StoreInt64(&w.storedTokens, int64(maxToken*1e6))
	atomic.StoreInt64(&w.lastFilledMs, int64(util.CurrentTimeMillis()))
	return w
}

// syncToken drains the bucket toward zero at a constant rate while
// traffic is flowing (passQps > 0), so the allowed QPS ramps from
// threshold/coldFactor up to threshold over WarmUpPeriodSec of sustained
// load; it refills back toward maxToken while the resource is idle, so a
// resource that stops being called cools back down.
func (w *warmUpCalculator) syncToken(passQps float64) float64 {
	now := int64(util.CurrentTimeMillis())
	last := atomic.LoadInt64(&w.lastFilledMs)
	cur := float64(atomic.LoadInt64(&w.storedTokens)) / 1e6
	if now <= last {
		return cur
	}
	elapsedSec := float64(now-last) / 1000.0
	warmUpPeriodSec := float64(w.rule.WarmUpPeriodSec)
	if warmUpPeriodSec <= 0 {
		warmUpPeriodSec = 10
	}
	drainPerSec := (w.maxToken - w.warningToken) / warmUpPeriodSec

	var next float64
	if passQps > 0 {
		next = cur - elapsedSec*drainPerSec
	} else {
		next = cur + elapsedSec*w.rule.Count
	}
	if next > w.maxToken {
		next = w.maxToken
	}
	if next < 0 {
		next = 0
	}
	atomic.StoreInt64(&w.storedTokens, int64(next*1e6))
	atomic.StoreInt64(&w.lastFilledMs, now)
	return next
}

func (w *warmUpCalculator) CalculateAllowedTokens(node base.StatNode, acquireCount uint32, flag int32) float64 {
	passQps := node.GetQPS(base.MetricEventPass)
	tokens := w.syncToken(passQps)

	if tokens <= w.warningToken {
		return w.rule.Count
	}
	if tokens < w.maxToken {
		restartPart := tokens - w.warningToken
		return 1.0 / (restartPart*w.slope + 1.0/w.rule.Count)
	}
	// At the ceiling: fully cold, slowest allowed rate.
	return w.rule.Count / w.coldFactor
}
