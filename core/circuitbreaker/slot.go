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

package circuitbreaker

import (
	"github.com/aegisflow/aegis/core/base"
)

const (
	RuleCheckSlotOrder = 3000
	StatSlotOrder      = 3000
)

var (
	DefaultSlot     = &Slot{}
	DefaultStatSlot = &StatSlot{}
)

// Slot is the DegradeSlot of the canonical chain: the last RuleCheckSlot,
// run only after flow and system admission have already let the call
// through.
type Slot struct{}

func (s *Slot) Order() uint32 { return RuleCheckSlotOrder }

func (s *Slot) Check(ctx *base.EntryContext) *base.TokenResult {
	res := ctx.Resource.Name()
	for _, cb := range getBreakersFor(res) {
		if cb.TryPass() {
			continue
		}
		return base.NewTokenResultBlocked(base.NewBlockError(base.BlockTypeDegrade, "circuit breaker open", cb.Rule()))
	}
	return nil
}

// StatSlot feeds the outcome of every completed call back into the
// breakers for its resource. It must run as a StatSlot (not folded into
// Check) because the RT and error outcome are only known at exit time.
type StatSlot struct{}

func (s *StatSlot) Order() uint32 { return StatSlotOrder }

func (s *StatSlot) OnEntryPassed(ctx *base.EntryContext)                        {}
func (s *StatSlot) OnEntryBlocked(ctx *base.EntryContext, _ *base.BlockError)    {}

func (s *StatSlot) OnCompleted(ctx *base.EntryContext) {
	res := ctx.Resource.Name()
	breakers := getBreakersFor(res)
	if len(breakers) == 0 {
		return
	}
	isError := ctx.Err() != nil
	rt := ctx.Rt()
	for _, cb := range breakers {
		cb.RecordResult(rt, isError)
	}
}
