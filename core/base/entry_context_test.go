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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryContextOriginAndContextNameAreEmptyWithoutBoundEntry(t *testing.T) {
	c := NewEmptyEntryContext()
	assert.Equal(t, "", c.Origin())
	assert.Equal(t, "", c.ContextName())
}

func TestEntryContextOriginAndContextNameDelegateToOwningContext(t *testing.T) {
	ResetContextRegistryForTest()
	defer ResetContextRegistryForTest()

	bctx, err := Enter("myContext", "callerA")
	require.NoError(t, err)
	defer ExitContext()

	c := NewEmptyEntryContext()
	c.SetEntry(&SentinelEntry{ctx: bctx})

	assert.Equal(t, "callerA", c.Origin())
	assert.Equal(t, "myContext", c.ContextName())
}

func TestEntryContextStartTimeRtAndErrAccessors(t *testing.T) {
	c := NewEmptyEntryContext()
	c.SetStartTime(123)
	c.PutRt(456)
	boom := errors.New("boom")
	c.SetError(boom)

	assert.Equal(t, uint64(123), c.StartTime())
	assert.Equal(t, uint64(456), c.Rt())
	assert.Equal(t, boom, c.Err())
}

func TestEntryContextIsBlockedReflectsRuleCheckResult(t *testing.T) {
	c := NewEmptyEntryContext()
	assert.False(t, c.IsBlocked())

	c.RuleCheckResult = NewTokenResultPass()
	assert.False(t, c.IsBlocked())

	c.RuleCheckResult = NewTokenResultBlocked(NewBlockError(BlockTypeFlow, "", fakeRule{}))
	assert.True(t, c.IsBlocked())
}

func TestEntryContextResetClearsAllMutableState(t *testing.T) {
	c := NewEmptyEntryContext()
	c.SetEntry(&SentinelEntry{})
	c.Resource = NewResourceWrapper("res1", ResTypeCommon, Inbound)
	c.StatNode = nil
	c.OriginNode = nil
	c.RuleCheckResult = NewTokenResultBlocked(NewBlockError(BlockTypeFlow, "", fakeRule{}))
	c.SetStartTime(1)
	c.PutRt(1)
	c.SetError(errors.New("x"))
	c.Data = map[interface{}]interface{}{"k": "v"}
	c.Input = &SentinelInput{
		BatchCount:  5,
		Flag:        1,
		Args:        []interface{}{"a"},
		Attachments: map[interface{}]interface{}{"k": "v"},
	}

	c.Reset()

	assert.Nil(t, c.Entry())
	assert.Nil(t, c.Resource)
	assert.Nil(t, c.StatNode)
	assert.Nil(t, c.OriginNode)
	assert.Nil(t, c.RuleCheckResult)
	assert.Equal(t, uint64(0), c.StartTime())
	assert.Equal(t, uint64(0), c.Rt())
	assert.Nil(t, c.Err())
	assert.Empty(t, c.Data)
	assert.Equal(t, uint32(1), c.Input.BatchCount)
	assert.Equal(t, int32(0), c.Input.Flag)
	assert.Empty(t, c.Input.Args)
	assert.Empty(t, c.Input.Attachments)
}
