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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDefaultIsIdempotent(t *testing.T) {
	require.NoError(t, InitDefault())
	require.NoError(t, InitDefault())
	assert.NotNil(t, currentChain())
}

func TestNewDefaultSlotChainOrdersEveryBucket(t *testing.T) {
	sc := newDefaultSlotChain()
	assert.NotNil(t, sc)
}
