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
	"github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/logging"
)

// Entry is the handle returned by a successful SphU.Entry call. Business
// code must call Exit exactly once when the protected section completes.
type Entry struct {
	inner *base.SentinelEntry
}

// Exit records completion (elapsed time and optionally a revised batch
// cost/args), runs every registered exit handler, and pops the entry off
// its Context's stack. Calling Exit more than once on the same Entry is a
// no-op; calling it out of LIFO order against sibling entries raises
// ErrorEntryFree.
func (e *Entry) Exit(opts ...ExitOption) {
	if e == nil || e.inner == nil {
		return
	}
	o := &exitOptions{count: 1}
	for _, opt := range opts {
		opt(o)
	}
	if err := e.inner.Exit(o.count, o.args...); err != nil {
		logging.Warn("[Entry.Exit] exit reported an error", "error", err.Error())
	}
}

// Context exposes the owning invocation-tree Context, mainly so async
// continuations can AttachContext/DetachContext it on another goroutine.
func (e *Entry) Context() *base.Context {
	if e == nil || e.inner == nil {
		return nil
	}
	return e.inner.Context()
}

type exitOptions struct {
	count uint32
	args  []interface{}
}

// ExitOption mutates the parameters of one Exit call.
type ExitOption func(*exitOptions)

func WithExitCount(count uint32) ExitOption {
	return func(o *exitOptions) { o.count = count }
}

func WithExitArgs(args ...interface{}) ExitOption {
	return func(o *exitOptions) { o.args = args }
}

// sphEntry is the shared implementation behind SphU.Entry and SphO.Entry:
// locate-or-create the calling goroutine's Context, run the slot chain,
// and on success push the entry onto the Context's stack.
func sphEntry(resource string, opts ...Option) (*Entry, *base.BlockError) {
	o := defaultEntryOptions()
	for _, opt := range opts {
		opt(o)
	}

	ctx, err := base.Enter(o.contextName, o.origin)
	if err != nil {
		// Context-name cardinality exceeded: degrade gracefully onto the
		// default context rather than rejecting the call outright.
		logging.FrequentErrorOnce.Do(func() {
			logging.Warn("[sphEntry] context registry overflow, falling back to default context", "error", err.Error())
		})
		ctx, err = base.Enter(base.DefaultContextName, o.origin)
		if err != nil {
			return nil, base.NewBlockError(base.BlockTypeFlow, "context registry unavailable", nil)
		}
	}

	chain := currentChain()
	eCtx := chain.GetPooledContext()
	eCtx.Resource = base.NewResourceWrapper(resource, o.resourceType, o.trafficType)
	eCtx.Input.BatchCount = o.batchCount
	eCtx.Input.Flag = o.flag
	if len(o.args) > 0 {
		eCtx.Input.Args = o.args
	}

	se := base.NewSentinelEntry(ctx, chain, eCtx)
	result := chain.Entry(eCtx)
	if result != nil && result.IsBlocked() {
		chain.RefurbishContext(eCtx)
		return nil, result.BlockError()
	}
	se.Push()
	return &Entry{inner: se}, nil
}

// sphUType implements the panic-free, block-error-returning entry point.
type sphUType struct{}

// SphU is the primary entry surface: a failed check surfaces as a
// *base.BlockError rather than a bool, carrying the offending rule.
var SphU sphUType

func (sphUType) Entry(resource string, opts ...Option) (*Entry, *base.BlockError) {
	return sphEntry(resource, opts...)
}

// sphOType implements the boolean convenience surface for call sites that
// just want a pass/fail gate without inspecting the BlockError.
type sphOType struct{}

var SphO sphOType

func (sphOType) Entry(resource string, opts ...Option) (*Entry, bool) {
	e, blockErr := sphEntry(resource, opts...)
	if blockErr != nil {
		return nil, false
	}
	return e, true
}

// AsyncEntry behaves like SphU.Entry, except it detaches the current
// goroutine's Context from the Entry immediately after creation so a
// caller can hand the Entry to a different goroutine (pairing
// AttachContext/DetachContext there) without leaking the parent's binding
// into unrelated work on this goroutine.
func AsyncEntry(resource string, opts ...Option) (*Entry, *base.BlockError) {
	e, blockErr := sphEntry(resource, opts...)
	if blockErr != nil {
		return nil, blockErr
	}
	base.AttachContext(nil)
	return e, nil
}
