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

// SentinelInput carries the per-call arguments of an entry: the batch
// cost, a slot-defined bitmask flag (e.g. priority), business args passed
// through for param-flow matching, and a scratch attachment map slots may
// use to stash data for one another.
type SentinelInput struct {
	BatchCount  uint32
	Flag        int32
	Args        []interface{}
	Attachments map[interface{}]interface{}
}

// EntryContext is the mutable scratchpad threaded through one pass of the
// slot chain: the resource being checked, the nodes the statistic slot
// should update, the rule-check verdict, and whatever per-entry state
// individual slots stash in Data. It is pooled and reset between uses by
// the owning SlotChain.
type EntryContext struct {
	entry *SentinelEntry

	Resource *ResourceWrapper
	StatNode StatNode
	// OriginNode holds the per-origin statistic node for this entry's
	// resource, resolved by ClusterBuilderSlot. May be nil if origin is
	// blank or the resource count cap was exceeded.
	OriginNode StatNode
	Input      *SentinelInput
	Data       map[interface{}]interface{}

	RuleCheckResult *TokenResult

	startTime uint64
	rt        uint64
	err       error
}

func NewEmptyEntryContext() *EntryContext {
	return &EntryContext{}
}

func (c *EntryContext) Entry() *SentinelEntry { return c.entry }
func (c *EntryContext) SetEntry(e *SentinelEntry) { c.entry = e }

func (c *EntryContext) StartTime() uint64 { return c.startTime }
func (c *EntryContext) SetStartTime(t uint64) { c.startTime = t }

func (c *EntryContext) PutRt(rt uint64) { c.rt = rt }
func (c *EntryContext) Rt() uint64      { return c.rt }

func (c *EntryContext) Err() error        { return c.err }
func (c *EntryContext) SetError(err error) { c.err = err }

func (c *EntryContext) IsBlocked() bool {
	return c.RuleCheckResult != nil && c.RuleCheckResult.IsBlocked()
}

// Origin is the upstream caller identity for this invocation, inherited
// from the owning Context. Empty when the context carries no origin.
func (c *EntryContext) Origin() string {
	if c.entry == nil || c.entry.ctx == nil {
		return ""
	}
	return c.entry.ctx.Origin()
}

// ContextName is the name of the owning Context, the CHAIN strategy's
// matching key against a FlowRule's RefResource.
func (c *EntryContext) ContextName() string {
	if c.entry == nil || c.entry.ctx == nil {
		return ""
	}
	return c.entry.ctx.Name()
}

func (c *EntryContext) Reset() {
	c.entry = nil
	c.Resource = nil
	c.StatNode = nil
	c.OriginNode = nil
	c.RuleCheckResult = nil
	c.startTime = 0
	c.rt = 0
	c.err = nil
	for k := range c.Data {
		delete(c.Data, k)
	}
	if c.Input != nil {
		c.Input.BatchCount = 1
		c.Input.Flag = 0
		c.Input.Args = c.Input.Args[:0]
		for k := range c.Input.Attachments {
			delete(c.Input.Attachments, k)
		}
	}
}
