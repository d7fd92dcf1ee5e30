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

package api

import (
	"testing"

	"github.com/aegisflow/aegis/core/base"
	"github.com/stretchr/testify/assert"
)

func TestDefaultEntryOptions(t *testing.T) {
	o := defaultEntryOptions()
	assert.Equal(t, base.ResTypeCommon, o.resourceType)
	assert.Equal(t, base.Inbound, o.trafficType)
	assert.EqualValues(t, 1, o.batchCount)
}

func TestOptionsMutateEntryOptions(t *testing.T) {
	o := defaultEntryOptions()
	for _, opt := range []Option{
		WithResourceType(base.ResTypeRPC),
		WithTrafficType(base.Outbound),
		WithBatchCount(5),
		WithFlag(7),
		WithArgs("a", "b"),
		WithOrigin("mobile-app"),
		WithContextName("myCtx"),
	} {
		opt(o)
	}

	assert.Equal(t, base.ResTypeRPC, o.resourceType)
	assert.Equal(t, base.Outbound, o.trafficType)
	assert.EqualValues(t, 5, o.batchCount)
	assert.EqualValues(t, 7, o.flag)
	assert.Equal(t, []interface{}{"a", "b"}, o.args)
	assert.Equal(t, "mobile-app", o.origin)
	assert.Equal(t, "myCtx", o.contextName)
}
