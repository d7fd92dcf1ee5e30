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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultStatusOrdering(t *testing.T) {
	assert.Equal(t, ResultStatus(0), ResultStatusPass)
	assert.Equal(t, ResultStatus(1), ResultStatusBlocked)
	assert.Equal(t, ResultStatus(2), ResultStatusShouldWait)
}

func TestNewTokenResultPass(t *testing.T) {
	r := NewTokenResultPass()
	assert.True(t, r.IsPass())
	assert.False(t, r.IsBlocked())
	assert.Nil(t, r.BlockError())
	assert.Equal(t, "TokenResult{status=pass}", r.String())
}

func TestNewTokenResultBlocked(t *testing.T) {
	be := NewBlockError(BlockTypeFlow, "blocked", fakeRule{resource: "res1"})
	r := NewTokenResultBlocked(be)

	assert.True(t, r.IsBlocked())
	assert.False(t, r.IsPass())
	assert.Equal(t, be, r.BlockError())
	assert.Contains(t, r.String(), "blocked")
}

func TestNewTokenResultShouldWait(t *testing.T) {
	r := NewTokenResultShouldWait(500)
	assert.Equal(t, ResultStatusShouldWait, r.Status())
	assert.False(t, r.IsPass())
	assert.False(t, r.IsBlocked())
	assert.Equal(t, int64(500), r.NanosToWait())
	assert.Contains(t, r.String(), "shouldWait")
}

func TestTokenResultResetToPassClearsBlockedState(t *testing.T) {
	be := NewBlockError(BlockTypeFlow, "blocked", fakeRule{resource: "res1"})
	r := NewTokenResultBlocked(be)

	r.ResetToPass()

	assert.True(t, r.IsPass())
	assert.Nil(t, r.BlockError())
	assert.Equal(t, int64(0), r.NanosToWait())
}
