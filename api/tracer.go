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

// tracerType attributes an exception to an in-flight Entry so the
// exception-ratio and exception-count circuit breakers see it when the
// entry's StatSlot.OnCompleted runs at Exit.
type tracerType struct{}

// Tracer is the handle business code calls on a caught exception, before
// calling Entry.Exit.
var Tracer tracerType

// TraceError records err against entry's EntryContext. Safe to call with a
// nil entry or a nil error (the latter is a no-op).
func (tracerType) TraceError(entry *Entry, err error) {
	if entry == nil || entry.inner == nil || err == nil {
		return
	}
	eCtx := entry.inner.EntryContext()
	if eCtx == nil {
		return
	}
	eCtx.SetError(err)
}
