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
)

type fakeRule struct{ resource string }

func (r fakeRule) ResourceName() string { return r.resource }
func (r fakeRule) String() string       { return "fakeRule{" + r.resource + "}" }

func TestBlockTypeString(t *testing.T) {
	assert.Equal(t, "FlowException", BlockTypeFlow.String())
	assert.Equal(t, "DegradeException", BlockTypeDegrade.String())
	assert.Equal(t, "AuthorityException", BlockTypeAuthority.String())
	assert.Equal(t, "SystemBlockException", BlockTypeSystemFlow.String())
	assert.Equal(t, "ParamFlowException", BlockTypeParamFlow.String())
	assert.Equal(t, "Unknown", BlockType(99).String())
}

func TestNewBlockErrorCarriesTypeMsgAndRule(t *testing.T) {
	rule := fakeRule{resource: "res1"}
	err := NewBlockError(BlockTypeFlow, "too many requests", rule)

	assert.Equal(t, BlockTypeFlow, err.BlockType())
	assert.Equal(t, "too many requests", err.BlockMsg())
	assert.Equal(t, rule, err.TriggeredRule())
	assert.Nil(t, err.TriggeredValue())
}

func TestNewBlockErrorWithSnapshotCarriesSnapshotValue(t *testing.T) {
	err := NewBlockErrorWithSnapshot(BlockTypeDegrade, "breaker open", fakeRule{resource: "res1"}, 0.75)
	assert.Equal(t, 0.75, err.TriggeredValue())
}

func TestBlockErrorErrorStringOmitsMessageWhenBlank(t *testing.T) {
	err := NewBlockError(BlockTypeAuthority, "", fakeRule{resource: "res1"})
	assert.Equal(t, "SentinelBlockError: AuthorityException", err.Error())
}

func TestBlockErrorErrorStringIncludesMessageWhenPresent(t *testing.T) {
	err := NewBlockError(BlockTypeAuthority, "blacklisted origin", fakeRule{resource: "res1"})
	assert.Contains(t, err.Error(), "AuthorityException")
	assert.Contains(t, err.Error(), "blacklisted origin")
}

func TestIsBlockErrorDistinguishesBlockErrorsFromOtherErrors(t *testing.T) {
	assert.True(t, IsBlockError(NewBlockError(BlockTypeFlow, "", fakeRule{})))
	assert.False(t, IsBlockError(errors.New("plain error")))
	assert.False(t, IsBlockError(nil))
}
