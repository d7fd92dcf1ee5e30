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
	"github.com/stretchr/testify/require"
)

func TestNewLeapArrayRejectsNonDivisibleInterval(t *testing.T) {
	_, err := NewLeapArray(3, 1000, metricBucketGenerator{})
	require.Error(t, err)
}

func TestNewLeapArrayRejectsNilGenerator(t *testing.T) {
	_, err := NewLeapArray(2, 1000, nil)
	require.Error(t, err)
}

func TestLeapArrayCurrentBucketIsStableWithinBucketLength(t *testing.T) {
	la, err := NewLeapArray(2, 1000, metricBucketGenerator{})
	require.NoError(t, err)

	bw1, err := la.CurrentBucket(metricBucketGenerator{})
	require.NoError(t, err)
	bw2, err := la.CurrentBucket(metricBucketGenerator{})
	require.NoError(t, err)
	assert.Same(t, bw1, bw2)
}

func TestLeapArrayValuesOnlyReturnsUnexpiredBuckets(t *testing.T) {
	la, err := NewLeapArray(2, 1000, metricBucketGenerator{})
	require.NoError(t, err)

	bw, err := la.CurrentBucket(metricBucketGenerator{})
	require.NoError(t, err)
	mb := bw.Value.Load().(*MetricBucket)
	mb.Add(0, 5)

	vals := la.valuesWithTime(bw.BucketStart + 200)
	assert.NotEmpty(t, vals)

	// Far beyond the window: every bucket should be considered expired.
	valsLater := la.valuesWithTime(bw.BucketStart + 5000)
	assert.Empty(t, valsLater)
}
