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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoroutineIDIsPositiveAndStableWithinAGoroutine(t *testing.T) {
	id1 := goroutineID()
	id2 := goroutineID()

	assert.Greater(t, id1, int64(0))
	assert.Equal(t, id1, id2)
}

func TestGoroutineIDDiffersAcrossGoroutines(t *testing.T) {
	mainID := goroutineID()

	var wg sync.WaitGroup
	var otherID int64
	wg.Add(1)
	go func() {
		defer wg.Done()
		otherID = goroutineID()
	}()
	wg.Wait()

	assert.NotEqual(t, mainID, otherID)
	assert.Greater(t, otherID, int64(0))
}
