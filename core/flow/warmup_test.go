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
	"testing"

	"github.com/aegisflow/aegis/core/stat"
	"github.com/stretchr/testify/assert"
)

func TestNewWarmUpCalculatorStartsFullyCold(t *testing.T) {
	rule := &Rule{Resource: "r", Count: 10, WarmUpPeriodSec: 10, WarmUpColdFactor: 3}
	w := newWarmUpCalculator(rule)

	node := stat.NewBaseStatNode()
	allowed := w.CalculateAllowedTokens(node, 1, 0)

	// At the ceiling, fully cold: threshold / coldFactor.
	assert.InDelta(t, rule.Count/3, allowed, 0.001)
}

func TestNewWarmUpCalculatorDefaultsColdFactorWhenNotAboveOne(t *testing.T) {
	rule := &Rule{Resource: "r", Count: 10, WarmUpPeriodSec: 10, WarmUpColdFactor: 1}
	w := newWarmUpCalculator(rule)

	assert.Greater(t, w.coldFactor, 1.0)
}

func TestNewWarmUpCalculatorDefaultsWarmUpPeriod(t *testing.T) {
	rule := &Rule{Resource: "r", Count: 10, WarmUpColdFactor: 3}
	w := newWarmUpCalculator(rule)

	assert.Greater(t, w.maxToken, w.warningToken)
}

func TestSyncTokenDrainsWhileTrafficFlows(t *testing.T) {
	rule := &Rule{Resource: "r", Count: 10, WarmUpPeriodSec: 10, WarmUpColdFactor: 3}
	w := newWarmUpCalculator(rule)
	initial := float64(w.storedTokens) / 1e6

	// Force elapsed time by rewinding lastFilledMs, simulating sustained
	// passing traffic over one second.
	w.lastFilledMs -= 1000
	after := w.syncToken(5.0)

	assert.Less(t, after, initial)
}

func TestSyncTokenRefillsWhenIdle(t *testing.T) {
	rule := &Rule{Resource: "r", Count: 10, WarmUpPeriodSec: 10, WarmUpColdFactor: 3}
	w := newWarmUpCalculator(rule)
	w.storedTokens = 0
	w.lastFilledMs -= 1000

	after := w.syncToken(0)
	assert.Greater(t, after, 0.0)
}

func TestSyncTokenNoOpWhenClockHasNotAdvanced(t *testing.T) {
	rule := &Rule{Resource: "r", Count: 10, WarmUpPeriodSec: 10, WarmUpColdFactor: 3}
	w := newWarmUpCalculator(rule)
	before := float64(w.storedTokens) / 1e6

	after := w.syncToken(5.0)
	assert.Equal(t, before, after)
}

func TestCalculateAllowedTokensRampsBetweenWarningAndMax(t *testing.T) {
	rule := &Rule{Resource: "r", Count: 10, WarmUpPeriodSec: 10, WarmUpColdFactor: 3}
	w := newWarmUpCalculator(rule)
	w.storedTokens = int64((w.warningToken + (w.maxToken-w.warningToken)/2) * 1e6)

	node := stat.NewBaseStatNode()
	allowed := w.CalculateAllowedTokens(node, 1, 0)

	assert.Greater(t, allowed, rule.Count/w.coldFactor)
	assert.LessOrEqual(t, allowed, rule.Count)
}

func TestCalculateAllowedTokensIsFullRateBelowWarningToken(t *testing.T) {
	rule := &Rule{Resource: "r", Count: 10, WarmUpPeriodSec: 10, WarmUpColdFactor: 3}
	w := newWarmUpCalculator(rule)
	w.storedTokens = 0

	node := stat.NewBaseStatNode()
	allowed := w.CalculateAllowedTokens(node, 1, 0)

	assert.Equal(t, rule.Count, allowed)
}
