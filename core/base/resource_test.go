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

func TestTrafficTypeString(t *testing.T) {
	assert.Equal(t, "Inbound", Inbound.String())
	assert.Equal(t, "Outbound", Outbound.String())
	assert.Equal(t, "Undefined", TrafficType(99).String())
}

func TestNewResourceWrapperExposesFields(t *testing.T) {
	r := NewResourceWrapper("res1", ResTypeRPC, Inbound)

	assert.Equal(t, "res1", r.Name())
	assert.Equal(t, ResTypeRPC, r.Classification())
	assert.Equal(t, Inbound, r.FlowType())
	assert.Equal(t, "res1", r.String())
}
