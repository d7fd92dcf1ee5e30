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
	"github.com/stretchr/testify/assert"
)

func TestRuleResourceName(t *testing.T) {
	r := &Rule{Resource: "checkout"}
	assert.Equal(t, "checkout", r.ResourceName())
}

func TestRuleStringIncludesFields(t *testing.T) {
	r := &Rule{Resource: "checkout", Count: 10}
	assert.Contains(t, r.String(), "checkout")
	assert.Contains(t, r.String(), "10.00")
}

func TestRuleIsValid(t *testing.T) {
	assert.True(t, (&Rule{Resource: "res", Count: 1}).isValid())
	assert.False(t, (&Rule{Resource: "", Count: 1}).isValid())
	assert.False(t, (&Rule{Resource: "res", Count: -1}).isValid())
	assert.False(t, (&Rule{Resource: "res", Count: 1, RelationStrategy: Chain}).isValid())
	assert.True(t, (&Rule{Resource: "res", Count: 1, RelationStrategy: Chain, RefResource: "ref"}).isValid())
}

func TestRuleLimitAppDefaultsWhenBlank(t *testing.T) {
	r := &Rule{Resource: "res"}
	assert.Equal(t, base.LimitAppDefault, r.limitApp())

	r.LimitApp = "mobile-app"
	assert.Equal(t, "mobile-app", r.limitApp())
}
