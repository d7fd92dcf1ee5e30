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
	"testing"

	"github.com/aegisflow/aegis/core/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClusterBuilderSlotAttachesResourceNodeOnce(t *testing.T) {
	ResetResourceNodeStorageForTest()
	defer ResetResourceNodeStorageForTest()

	ctx := base.NewEmptyEntryContext()
	ctx.Resource = base.NewResourceWrapper("billing", base.ResTypeCommon, base.Inbound)
	DefaultNodeSelectorSlot.Prepare(ctx)

	DefaultClusterBuilderSlot.Prepare(ctx)
	dn := ctx.StatNode.(*DefaultNode)
	cn1 := dn.ClusterNode()
	require.NotNil(t, cn1)

	// Second prepare on the same DefaultNode must not replace the
	// already-attached ClusterNode.
	DefaultClusterBuilderSlot.Prepare(ctx)
	assert.Same(t, cn1, dn.ClusterNode())
	assert.Same(t, cn1, GetResourceNode("billing"))
}

func TestClusterBuilderSlotResolvesOriginNodeWhenOriginPresent(t *testing.T) {
	ResetResourceNodeStorageForTest()
	base.ResetContextRegistryForTest()
	defer ResetResourceNodeStorageForTest()
	defer base.ExitContext()

	bctx, err := base.Enter("withOrigin", "mobile-app")
	require.NoError(t, err)

	chain := base.NewSlotChain()
	eCtx := chain.GetPooledContext()
	eCtx.Resource = base.NewResourceWrapper("checkout", base.ResTypeCommon, base.Inbound)
	base.NewSentinelEntry(bctx, chain, eCtx)

	DefaultNodeSelectorSlot.Prepare(eCtx)
	DefaultClusterBuilderSlot.Prepare(eCtx)

	require.NotNil(t, eCtx.OriginNode)
}
