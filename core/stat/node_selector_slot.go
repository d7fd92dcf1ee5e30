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

package stat

import (
	"sync"

	"github.com/aegisflow/aegis/core/base"
)

const NodeSelectorSlotOrder = 1000

// perContextRoots holds, for every Context (by id), the root DefaultNode
// of that context's invocation tree. NodeSelectorSlot grows the tree one
// child at a time as the context's current entry descends into nested
// resources.
var (
	rootsMu sync.RWMutex
	roots   = make(map[string]*DefaultNode)
)

// NodeSelectorSlot is the first StatPrepareSlot in the chain: it resolves
// (creating if necessary) the DefaultNode for this resource within this
// Context's invocation tree, and attaches it to the entry.
type NodeSelectorSlot struct{}

var DefaultNodeSelectorSlot = &NodeSelectorSlot{}

func (s *NodeSelectorSlot) Order() uint32 { return NodeSelectorSlotOrder }

func (s *NodeSelectorSlot) Prepare(ctx *base.EntryContext) {
	entry := ctx.Entry()
	if entry == nil || entry.Context() == nil {
		ctx.StatNode = NewDefaultNode(ctx.Resource.Name())
		return
	}

	contextID := entry.Context().ID()
	parent := entry.Parent()

	root := getOrCreateRoot(contextID)
	node := root
	if parent != nil && parent.EntryContext() != nil {
		if parentNode, ok := parent.EntryContext().StatNode.(*DefaultNode); ok {
			node = parentNode
		}
	}
	child := node.AddChild(ctx.Resource.Name())
	ctx.StatNode = child
}

func getOrCreateRoot(contextID string) *DefaultNode {
	rootsMu.RLock()
	r, ok := roots[contextID]
	rootsMu.RUnlock()
	if ok {
		return r
	}
	rootsMu.Lock()
	defer rootsMu.Unlock()
	if r, ok = roots[contextID]; ok {
		return r
	}
	r = NewDefaultNode("")
	roots[contextID] = r
	return r
}
