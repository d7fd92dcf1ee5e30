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

func newTestChain() *SlotChain {
	return NewSlotChain()
}

func pushEntry(t *testing.T, ctx *Context, chain *SlotChain, resource string) *SentinelEntry {
	t.Helper()
	eCtx := chain.GetPooledContext()
	eCtx.Resource = NewResourceWrapper(resource, ResTypeCommon, Inbound)
	e := NewSentinelEntry(ctx, chain, eCtx)
	e.Push()
	return e
}

func TestEntryStackLIFOOrdering(t *testing.T) {
	ResetContextRegistryForTest()
	defer ExitContext()

	ctx, err := Enter("ctxA", "")
	require.NoError(t, err)

	e1 := pushEntry(t, ctx, newTestChain(), "res1")
	assert.Equal(t, e1, ctx.curEntryPtr())

	e2 := pushEntry(t, ctx, e1.chain, "res2")
	assert.Equal(t, e2, ctx.curEntryPtr())
	assert.Equal(t, e1, e2.Parent())

	require.NoError(t, e2.Exit(1))
	assert.Equal(t, e1, ctx.curEntryPtr())

	require.NoError(t, e1.Exit(1))
	assert.Nil(t, ctx.curEntryPtr())
}

func TestEntryExitMismatchClearsContext(t *testing.T) {
	ResetContextRegistryForTest()
	defer ExitContext()

	ctx, err := Enter("ctxB", "")
	require.NoError(t, err)

	chain := newTestChain()
	e1 := pushEntry(t, ctx, chain, "A")
	e2 := pushEntry(t, ctx, chain, "B")
	_ = e2

	err = e1.Exit(1)
	var mismatch *ErrorEntryFree
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "B", mismatch.ExpectedTop)
	assert.Equal(t, "A", mismatch.ActualExit)
	assert.Nil(t, ctx.curEntryPtr())
}

func TestEntryExitIsIdempotent(t *testing.T) {
	ResetContextRegistryForTest()
	defer ExitContext()

	ctx, err := Enter("ctxC", "")
	require.NoError(t, err)

	chain := newTestChain()
	e := pushEntry(t, ctx, chain, "A")
	require.NoError(t, e.Exit(1))
	require.NoError(t, e.Exit(1))
}

func TestContextEnterReusesExistingBinding(t *testing.T) {
	ResetContextRegistryForTest()
	defer ExitContext()

	c1, err := Enter("first", "originA")
	require.NoError(t, err)
	c2, err := Enter("second", "originB")
	require.NoError(t, err)

	assert.Same(t, c1, c2)
	assert.Equal(t, "first", c2.Name())
	assert.Equal(t, "originA", c2.Origin())
}

func TestContextOverflowErrorSatisfiesErrorInterface(t *testing.T) {
	err := &ContextOverflowError{Name: "tooMany"}
	var target error = err
	assert.Contains(t, target.Error(), "tooMany")
	assert.True(t, errors.As(target, &err))
}
