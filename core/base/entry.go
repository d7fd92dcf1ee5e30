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

	"github.com/aegisflow/aegis/logging"
	"github.com/aegisflow/aegis/util"
)

// ExitHandler is registered by a slot that needs to run custom logic when
// an Entry exits, beyond what StatSlot.OnCompleted already covers.
type ExitHandler func(entry *SentinelEntry, ctx *EntryContext) error

// SentinelEntry represents one in-flight protected invocation. Entries
// within a Context form a strict LIFO stack: Exit must be called on the
// current top of the stack, by identity, not by resource name.
type SentinelEntry struct {
	createTime uint64

	ctx    *Context
	parent *SentinelEntry

	chain *SlotChain
	eCtx  *EntryContext

	exitHandlers []ExitHandler

	exitOnce sync.Once
}

func NewSentinelEntry(ctx *Context, chain *SlotChain, eCtx *EntryContext) *SentinelEntry {
	e := &SentinelEntry{
		createTime: util.CurrentTimeMillis(),
		ctx:        ctx,
		chain:      chain,
		eCtx:       eCtx,
	}
	if ctx != nil {
		e.parent = ctx.curEntryPtr()
	}
	eCtx.SetEntry(e)
	eCtx.SetStartTime(e.createTime)
	return e
}

func (e *SentinelEntry) CreateTime() uint64       { return e.createTime }
func (e *SentinelEntry) Context() *Context        { return e.ctx }
func (e *SentinelEntry) Parent() *SentinelEntry   { return e.parent }
func (e *SentinelEntry) EntryContext() *EntryContext { return e.eCtx }

// AddExitHandler registers fn to run when this entry exits, after the
// slot chain's own exit processing.
func (e *SentinelEntry) AddExitHandler(fn ExitHandler) {
	e.exitHandlers = append(e.exitHandlers, fn)
}

// Push makes this entry the current top of its context's stack. Called
// once, after the slot chain has admitted the entry (i.e. it did not
// block), so a rejected entry never becomes visible on the stack.
func (e *SentinelEntry) Push() {
	if e.ctx != nil {
		e.ctx.setCurEntry(e)
	}
}

// Exit records completion, walks the slot chain's exit processing, runs
// registered exit handlers and pops the entry off its context's stack.
// Exit must be called at most once per successful Entry; it is a no-op
// on subsequent calls.
func (e *SentinelEntry) Exit(count uint32, args ...interface{}) error {
	var outErr error
	e.exitOnce.Do(func() {
		outErr = e.doExit(count, args)
	})
	return outErr
}

func (e *SentinelEntry) doExit(count uint32, args []interface{}) error {
	if e.ctx == nil {
		return errNilContext
	}
	top := e.ctx.curEntryPtr()
	if top != e {
		// Pairing violated: exit was not called on the current top of
		// the stack. Per the fail-open / clear-on-corruption policy the
		// whole context is cleared so later entries start clean.
		expected := ""
		if top != nil && top.eCtx != nil && top.eCtx.Resource != nil {
			expected = top.eCtx.Resource.Name()
		}
		actual := ""
		if e.eCtx != nil && e.eCtx.Resource != nil {
			actual = e.eCtx.Resource.Name()
		}
		e.ctx.setCurEntry(nil)
		err := &ErrorEntryFree{ExpectedTop: expected, ActualExit: actual}
		logging.Warn("[SentinelEntry.Exit] entry pairing mismatch, context cleared",
			"expectedTop", expected, "actualExit", actual, "context", e.ctx.Name())
		return err
	}

	if e.eCtx != nil {
		e.eCtx.Input.BatchCount = count
		if len(args) > 0 {
			e.eCtx.Input.Args = args
		}
	}
	if e.chain != nil && e.eCtx != nil {
		e.chain.exit(e.eCtx)
	}
	for _, h := range e.exitHandlers {
		if err := h(e, e.eCtx); err != nil {
			logging.Error(err, "[SentinelEntry.Exit] exit handler returned error")
		}
	}

	// Pop: restore the parent as the new top of stack.
	e.ctx.setCurEntry(e.parent)
	if e.chain != nil && e.eCtx != nil {
		e.chain.RefurbishContext(e.eCtx)
	}
	return nil
}
