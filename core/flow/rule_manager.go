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

package flow

import (
	"sync/atomic"

	"github.com/aegisflow/aegis/logging"
	"go.uber.org/multierr"
)

// controllerMap groups every active TrafficShapingController by
// resource; a check walks the resource's list in the order the rules
// were loaded.
type controllerMap = map[string][]*TrafficShapingController

var currentControllers atomic.Value // controllerMap

func init() {
	currentControllers.Store(make(controllerMap))
}

// LoadRules atomically replaces the active rule set and rebuilds every
// TrafficShapingController from scratch, so warm-up/throttling state
// never leaks between a reload — satisfies the round-trip property that
// reloading the same list twice must not accumulate shaper state.
func LoadRules(rules []*Rule) {
	newMap := make(controllerMap)
	var errs error
	for _, r := range rules {
		if r == nil || !r.isValid() {
			errs = multierr.Append(errs, invalidRuleErr(r))
			continue
		}
		tc := NewTrafficShapingController(r)
		newMap[r.Resource] = append(newMap[r.Resource], tc)
	}
	if errs != nil {
		logging.Warn("[FlowRuleManager] dropped invalid rules while loading", "errors", errs.Error())
	}
	currentControllers.Store(newMap)
}

func GetRules() []*Rule {
	m := currentControllers.Load().(controllerMap)
	out := make([]*Rule, 0, len(m))
	for _, tcs := range m {
		for _, tc := range tcs {
			out = append(out, tc.Rule())
		}
	}
	return out
}

func getTrafficControllerListFor(resource string) []*TrafficShapingController {
	m := currentControllers.Load().(controllerMap)
	return m[resource]
}

type invalidRuleError struct{ rule *Rule }

func (e *invalidRuleError) Error() string {
	if e.rule == nil {
		return "flow rule is nil"
	}
	return "invalid flow rule: " + e.rule.String()
}

func invalidRuleErr(r *Rule) error { return &invalidRuleError{rule: r} }
