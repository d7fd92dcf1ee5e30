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
	"sync/atomic"

	"github.com/aegisflow/aegis/core/base"
	"github.com/aegisflow/aegis/core/config"
	"github.com/aegisflow/aegis/logging"
)

// inboundResourceName is the pseudo-resource every Inbound entry's
// statistics are also aggregated under, giving the system-load rules a
// single node to evaluate process-wide inbound QPS/RT against.
const inboundResourceName = "__inbound_entrance_node__"

var (
	resourceNodeMap   sync.Map // string -> *ResourceNode
	resourceNodeCount int64

	inboundNode = NewResourceNode(inboundResourceName, base.ResTypeCommon)
)

// GetResourceNode returns the existing ResourceNode for name, if any.
func GetResourceNode(name string) *ResourceNode {
	if v, ok := resourceNodeMap.Load(name); ok {
		return v.(*ResourceNode)
	}
	return nil
}

// GetOrCreateResourceNode resolves name's ResourceNode, creating one if
// absent and the MaxResourceCount cap has not been reached. Once the cap
// is hit, additional resources are still admitted by the slot chain but
// are no longer statistically tracked, per the cardinality note in the
// data model.
func GetOrCreateResourceNode(name string, resourceType base.ResourceType) *ResourceNode {
	if v, ok := resourceNodeMap.Load(name); ok {
		return v.(*ResourceNode)
	}
	if uint32(atomic.LoadInt64(&resourceNodeCount)) >= config.MaxResourceCount() {
		logging.FrequentErrorOnce.Do(func() {
			logging.Warn("[GetOrCreateResourceNode] resource count exceeds MaxResourceCount, further resources are admitted but untracked",
				"maxResourceCount", config.MaxResourceCount())
		})
		return nil
	}
	n := NewResourceNode(name, resourceType)
	actual, loaded := resourceNodeMap.LoadOrStore(name, n)
	if !loaded {
		atomic.AddInt64(&resourceNodeCount, 1)
	}
	return actual.(*ResourceNode)
}

// ResourceNodeList returns every tracked ResourceNode, for the metric
// aggregator to sweep each flush interval.
func ResourceNodeList() []*ResourceNode {
	list := make([]*ResourceNode, 0)
	resourceNodeMap.Range(func(_, v interface{}) bool {
		list = append(list, v.(*ResourceNode))
		return true
	})
	return list
}

// InboundNode returns the process-wide inbound entrance node.
func InboundNode() *ResourceNode { return inboundNode }

// ResetResourceNodeStorageForTest clears the node registry; exposed for
// package tests that need a clean slate between cases.
func ResetResourceNodeStorageForTest() {
	resourceNodeMap.Range(func(k, _ interface{}) bool {
		resourceNodeMap.Delete(k)
		return true
	})
	atomic.StoreInt64(&resourceNodeCount, 0)
	inboundNode = NewResourceNode(inboundResourceName, base.ResTypeCommon)
}
