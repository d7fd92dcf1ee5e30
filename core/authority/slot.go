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

package authority

import (
	"github.com/aegisflow/aegis/core/base"
)

const RuleCheckSlotOrder = 500

type Slot struct{}

var DefaultSlot = &Slot{}

func (s *Slot) Order() uint32 { return RuleCheckSlotOrder }

func (s *Slot) Check(ctx *base.EntryContext) *base.TokenResult {
	rules := rulesFor(ctx.Resource.Name())
	if len(rules) == 0 {
		return nil
	}
	origin := ctx.Origin()
	for _, r := range rules {
		if !matches(r, origin) {
			continue
		}
		blocked := r.Strategy == AuthorityBlack
		if blocked {
			return base.NewTokenResultBlocked(base.NewBlockError(base.BlockTypeAuthority, "origin in blacklist", r))
		}
		return nil
	}
	// Whitelist rules: if any whitelist rule exists for this resource and
	// none matched, the call is rejected.
	for _, r := range rules {
		if r.Strategy == AuthorityWhite {
			return base.NewTokenResultBlocked(base.NewBlockError(base.BlockTypeAuthority, "origin not in whitelist", r))
		}
	}
	return nil
}

func matches(r *Rule, origin string) bool {
	for _, app := range r.LimitApp {
		if app == origin {
			return true
		}
	}
	return false
}
