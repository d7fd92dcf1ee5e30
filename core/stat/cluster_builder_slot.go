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
	"github.com/aegisflow/aegis/core/base"
)

const ClusterBuilderSlotOrder = 2000

// ClusterBuilderSlot resolves the resource-wide ResourceNode (the
// ClusterNode of the data model) and attaches it to the entry's
// DefaultNode the first time that resource is seen, then resolves the
// OriginNode for the current Context's origin.
type ClusterBuilderSlot struct{}

var DefaultClusterBuilderSlot = &ClusterBuilderSlot{}

func (s *ClusterBuilderSlot) Order() uint32 { return ClusterBuilderSlotOrder }

func (s *ClusterBuilderSlot) Prepare(ctx *base.EntryContext) {
	dn, ok := ctx.StatNode.(*DefaultNode)
	if !ok || dn == nil {
		return
	}
	cn := dn.ClusterNode()
	if cn == nil {
		cn = GetOrCreateResourceNode(ctx.Resource.Name(), ctx.Resource.Classification())
		dn.SetClusterNode(cn)
	}
	if cn == nil {
		// Resource count cap reached: admitted but untracked.
		return
	}

	origin := ctx.Origin()
	if origin == "" {
		return
	}
	ctx.OriginNode = cn.GetOrCreateOriginNode(origin)
}
