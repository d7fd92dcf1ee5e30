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
	"github.com/aegisflow/aegis/logging"
)

const LogSlotOrder = 900

// LogSlot records block events to the structured logger. It runs ahead of
// StatisticSlot in the StatSlot chain so the log line reflects the raw
// decision, independent of whatever counters StatisticSlot goes on to
// update.
type LogSlot struct{}

var DefaultLogSlot = &LogSlot{}

func (s *LogSlot) Order() uint32 { return LogSlotOrder }

func (s *LogSlot) OnEntryPassed(ctx *base.EntryContext) {}

func (s *LogSlot) OnEntryBlocked(ctx *base.EntryContext, blockErr *base.BlockError) {
	logging.Warn("[LogSlot] resource blocked",
		"resource", ctx.Resource.Name(),
		"blockType", blockErr.BlockType().String(),
		"origin", ctx.Origin())
}

func (s *LogSlot) OnCompleted(ctx *base.EntryContext) {}
