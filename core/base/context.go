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

	"github.com/aegisflow/aegis/core/config"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const DefaultContextName = "sentinel_default_context"

// Context is the invocation-tree root bound to a task: a name, the
// upstream caller's origin, and the currently active Entry (the top of
// the task's LIFO entry stack). It is looked up by binding it to the
// calling goroutine in Enter, and is reused by every entry made by that
// goroutine until ExitContext clears the binding.
type Context struct {
	id     string
	name   string
	origin string

	mu       sync.Mutex
	curEntry *SentinelEntry
}

func newContext(name, origin string) *Context {
	return &Context{id: uuid.NewString(), name: name, origin: origin}
}

func (c *Context) ID() string     { return c.id }
func (c *Context) Name() string   { return c.name }
func (c *Context) Origin() string { return c.origin }

func (c *Context) curEntryPtr() *SentinelEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.curEntry
}

func (c *Context) setCurEntry(e *SentinelEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.curEntry = e
}

// ContextOverflowError is returned by Enter once the number of distinct
// context names ever seen by the process exceeds config.MaxContextNameSize.
type ContextOverflowError struct {
	Name string
}

func (e *ContextOverflowError) Error() string {
	return "sentinel: context name cardinality exceeded, rejecting new context name " + e.Name
}

// ErrorEntryFree is raised when Entry.Exit is not called on the current
// top of its context's entry stack. The context is cleared as a side
// effect so a leaked/misordered pairing cannot corrupt later entries.
type ErrorEntryFree struct {
	ExpectedTop string
	ActualExit  string
}

func (e *ErrorEntryFree) Error() string {
	return "sentinel: entry exit mismatch, expected top-of-stack resource " +
		e.ExpectedTop + " but got exit for " + e.ActualExit
}

var (
	contextsByGoroutine sync.Map // int64 -> *Context
	seenNames           sync.Map // string -> struct{}
	seenNamesCount       int64
	seenNamesMu          sync.Mutex
)

// Enter binds a Context to the calling goroutine for name/origin. If a
// Context is already bound, it is returned unchanged — a differing name
// on a later call is tolerated and ignored, matching the "the existing
// wins" rule. A brand-new name is rejected with *ContextOverflowError
// once MaxContextNameSize distinct names have been observed; the
// eviction-free registry persists for the process lifetime.
func Enter(name, origin string) (*Context, error) {
	if name == "" {
		name = DefaultContextName
	}
	gid := goroutineID()
	if v, ok := contextsByGoroutine.Load(gid); ok {
		return v.(*Context), nil
	}
	if err := registerName(name); err != nil {
		return nil, err
	}
	ctx := newContext(name, origin)
	contextsByGoroutine.Store(gid, ctx)
	return ctx, nil
}

func registerName(name string) error {
	if _, ok := seenNames.Load(name); ok {
		return nil
	}
	seenNamesMu.Lock()
	defer seenNamesMu.Unlock()
	if _, ok := seenNames.Load(name); ok {
		return nil
	}
	if uint32(seenNamesCount) >= config.MaxContextNameSize() {
		return &ContextOverflowError{Name: name}
	}
	seenNames.Store(name, struct{}{})
	seenNamesCount++
	return nil
}

// CurrentContext returns the Context bound to the calling goroutine, or
// nil if none is bound.
func CurrentContext() *Context {
	gid := goroutineID()
	if v, ok := contextsByGoroutine.Load(gid); ok {
		return v.(*Context)
	}
	return nil
}

// ExitContext clears the binding for the calling goroutine. Safe to call
// when no context is bound.
func ExitContext() {
	gid := goroutineID()
	contextsByGoroutine.Delete(gid)
}

// AttachContext binds ctx to the calling goroutine explicitly, returning
// whatever was previously bound (nil if none). Asynchronous continuations
// that hop goroutines use this, paired with DetachContext, to carry their
// parent's invocation tree across the hop instead of silently attributing
// statistics to the default context.
func AttachContext(ctx *Context) *Context {
	gid := goroutineID()
	var prev *Context
	if v, ok := contextsByGoroutine.Load(gid); ok {
		prev = v.(*Context)
	}
	if ctx == nil {
		contextsByGoroutine.Delete(gid)
	} else {
		contextsByGoroutine.Store(gid, ctx)
	}
	return prev
}

// DetachContext restores whatever Context was bound before the matching
// AttachContext call (possibly nil).
func DetachContext(prev *Context) {
	AttachContext(prev)
}

// resetContextRegistryForTest clears the process-wide distinct-name
// registry; it exists so tests exercising ContextOverflowError do not
// leak state into later tests.
func resetContextRegistryForTest() {
	seenNamesMu.Lock()
	defer seenNamesMu.Unlock()
	seenNames.Range(func(k, _ interface{}) bool {
		seenNames.Delete(k)
		return true
	})
	seenNamesCount = 0
}

// ResetContextRegistryForTest is the exported hook for package tests
// outside base that need a clean context-name registry.
func ResetContextRegistryForTest() {
	resetContextRegistryForTest()
}

var errNilContext = errors.New("sentinel: nil context")
