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

package datasource

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	updates []int
	err     error
}

func (l *recordingListener) ConfigUpdate(v int) error {
	l.updates = append(l.updates, v)
	return l.err
}

func TestSentinelPropertyGetValueDefaultsZero(t *testing.T) {
	p := NewSentinelProperty[int]()
	assert.Equal(t, 0, p.GetValue())
}

func TestSentinelPropertyUpdateValueNotifiesListeners(t *testing.T) {
	p := NewSentinelProperty[int]()
	l := &recordingListener{}
	p.AddListener(l)

	require.NoError(t, p.UpdateValue(42))
	assert.Equal(t, 42, p.GetValue())
	assert.Equal(t, []int{42}, l.updates)
}

func TestSentinelPropertyAggregatesListenerErrors(t *testing.T) {
	p := NewSentinelProperty[int]()
	l1 := &recordingListener{err: errors.New("first")}
	l2 := &recordingListener{err: errors.New("second")}
	p.AddListener(l1)
	p.AddListener(l2)

	err := p.UpdateValue(1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first")
	assert.Contains(t, err.Error(), "second")
	// Both listeners still ran despite the first one erroring.
	assert.Equal(t, []int{1}, l1.updates)
	assert.Equal(t, []int{1}, l2.updates)
}

func TestSentinelPropertyMultipleUpdatesOverwriteValue(t *testing.T) {
	p := NewSentinelProperty[string]()
	require.NoError(t, p.UpdateValue("first"))
	require.NoError(t, p.UpdateValue("second"))
	assert.Equal(t, "second", p.GetValue())
}
