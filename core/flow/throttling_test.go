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

func TestThrottlingCheckerBlocksImmediatelyWhenThresholdIsZero(t *testing.T) {
	c := newThrottlingChecker(&Rule{Resource: "r", MaxQueueingTimeMs: 1000})
	node := stat.NewBaseStatNode()

	res := c.DoCheck(node, 1, 0)
	require.NotNil(t, res)
	assert.True(t, res.IsBlocked())
}

func TestThrottlingCheckerPassesFirstRequestImmediately(t *testing.T) {
	c := newThrottlingChecker(&Rule{Resource: "r", MaxQueueingTimeMs: 1000})
	c.latestPassedTimeMs = 0
	node := stat.NewBaseStatNode()

	res := c.DoCheck(node, 1, 10)
	assert.Nil(t, res)
}

func TestThrottlingCheckerQueuesWithinMaxWait(t *testing.T) {
	c := newThrottlingChecker(&Rule{Resource: "r", MaxQueueingTimeMs: 10000})
	node := stat.NewBaseStatNode()
	// threshold of 1 req/s means each slot costs 1000ms; pin the latest
	// pass into the future so the next check must queue.
	future := c.latestPassedTimeMs + 500
	c.latestPassedTimeMs = future

	res := c.DoCheck(node, 1, 1)
	require.NotNil(t, res)
	assert.Equal(t, base.ResultStatusShouldWait, res.Status())
	assert.Greater(t, res.NanosToWait(), int64(0))
}

func TestThrottlingCheckerRejectsWhenQueueingExceedsMax(t *testing.T) {
	c := newThrottlingChecker(&Rule{Resource: "r", MaxQueueingTimeMs: 1})
	node := stat.NewBaseStatNode()
	future := c.latestPassedTimeMs + 5000
	c.latestPassedTimeMs = future

	res := c.DoCheck(node, 1, 1)
	require.NotNil(t, res)
	assert.True(t, res.IsBlocked())
}
