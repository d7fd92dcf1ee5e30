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

	"github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/core/stat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrafficShapingControllerSelectsCalculatorAndChecker(t *testing.T) {
	reject := NewTrafficShapingController(&Rule{Resource: "r", Count: 1, ControlBehavior: Reject})
	_, isDirect := reject.calculator.(*directCalculator)
	_, isRejectChk := reject.checker.(*rejectChecker)
	assert.True(t, isDirect)
	assert.True(t, isRejectChk)

	warmup := NewTrafficShapingController(&Rule{Resource: "r", Count: 10, ControlBehavior: WarmUp, WarmUpPeriodSec: 10})
	_, isWarmup := warmup.calculator.(*warmUpCalculator)
	_, isRejectChk2 := warmup.checker.(*rejectChecker)
	assert.True(t, isWarmup)
	assert.True(t, isRejectChk2)

	throttle := NewTrafficShapingController(&Rule{Resource: "r", Count: 10, ControlBehavior: Throttling})
	_, isDirect2 := throttle.calculator.(*directCalculator)
	_, isThrottle := throttle.checker.(*throttlingChecker)
	assert.True(t, isDirect2)
	assert.True(t, isThrottle)

	both := NewTrafficShapingController(&Rule{Resource: "r", Count: 10, ControlBehavior: WarmUpThrottling, WarmUpPeriodSec: 10})
	_, isWarmup2 := both.calculator.(*warmUpCalculator)
	_, isThrottle2 := both.checker.(*throttlingChecker)
	assert.True(t, isWarmup2)
	assert.True(t, isThrottle2)
}

func TestPerformCheckingNilNodePassesThrough(t *testing.T) {
	tc := NewTrafficShapingController(&Rule{Resource: "r", Count: 1})
	assert.Nil(t, tc.PerformChecking(nil, 1, 0))
}

func TestPerformCheckingThreadGradeBlocksOverThreshold(t *testing.T) {
	tc := NewTrafficShapingController(&Rule{Resource: "r", Grade: Thread, Count: 2})
	node := stat.NewBaseStatNode()
	node.IncreaseConcurrency()
	node.IncreaseConcurrency()

	res := tc.PerformChecking(node, 1, 0)
	require.NotNil(t, res)
	assert.True(t, res.IsBlocked())
	assert.Equal(t, base.BlockTypeFlow, res.BlockError().BlockType())
}

func TestPerformCheckingThreadGradePassesUnderThreshold(t *testing.T) {
	tc := NewTrafficShapingController(&Rule{Resource: "r", Grade: Thread, Count: 10})
	node := stat.NewBaseStatNode()
	node.IncreaseConcurrency()

	assert.Nil(t, tc.PerformChecking(node, 1, 0))
}

func TestPerformCheckingQPSGradeBlocksOverThreshold(t *testing.T) {
	tc := NewTrafficShapingController(&Rule{Resource: "r", Grade: QPS, Count: 0, ControlBehavior: Reject})
	node := stat.NewBaseStatNode()
	node.AddCount(base.MetricEventPass, 1)

	res := tc.PerformChecking(node, 1, 0)
	require.NotNil(t, res)
	assert.True(t, res.IsBlocked())
	assert.Equal(t, base.BlockTypeFlow, res.BlockError().BlockType())
	assert.Same(t, tc.Rule(), res.BlockError().TriggeredRule())
}

func TestDirectCalculatorAlwaysReturnsConfiguredCount(t *testing.T) {
	c := &directCalculator{rule: &Rule{Count: 42}}
	assert.Equal(t, 42.0, c.CalculateAllowedTokens(nil, 1, 0))
}

func TestRejectCheckerBlocksWhenOverThreshold(t *testing.T) {
	c := &rejectChecker{}
	node := stat.NewBaseStatNode()
	node.AddCount(base.MetricEventPass, 5)

	res := c.DoCheck(node, 1, 3)
	require.NotNil(t, res)
	assert.True(t, res.IsBlocked())
}

func TestRejectCheckerPassesWhenUnderThreshold(t *testing.T) {
	c := &rejectChecker{}
	node := stat.NewBaseStatNode()

	assert.Nil(t, c.DoCheck(node, 1, 10))
}
