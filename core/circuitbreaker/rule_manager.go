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
	"sync/atomic"

	"github.com/aegisflow/aegis/logging"
	"go.uber.org/multierr"
)

type breakerMap = map[string][]CircuitBreaker

var currentBreakers atomic.Value // breakerMap

func init() {
	currentBreakers.Store(make(breakerMap))
}

// LoadRules atomically replaces the active rule set, building a fresh
// CircuitBreaker (and therefore a fresh sliding window and CLOSED state)
// per valid rule — reloading never carries stale OPEN/HALF_OPEN state
// forward for a rule whose parameters changed.
func LoadRules(rules []*Rule) {
	newMap := make(breakerMap)
	var errs error
	for _, r := range rules {
		if r == nil || !r.isValid() {
			errs = multierr.Append(errs, invalidRuleErr(r))
			continue
		}
		cb, err := NewCircuitBreaker(r)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		newMap[r.Resource] = append(newMap[r.Resource], cb)
	}
	if errs != nil {
		logging.Warn("[CircuitBreakerRuleManager] dropped invalid rules while loading", "errors", errs.Error())
	}
	currentBreakers.Store(newMap)
}

func GetRules() []*Rule {
	m := currentBreakers.Load().(breakerMap)
	out := make([]*Rule, 0, len(m))
	for _, cbs := range m {
		for _, cb := range cbs {
			out = append(out, cb.Rule())
		}
	}
	return out
}

func getBreakersFor(resource string) []CircuitBreaker {
	m := currentBreakers.Load().(breakerMap)
	return m[resource]
}

type invalidRuleError struct{ rule *Rule }

func (e *invalidRuleError) Error() string {
	if e.rule == nil {
		return "degrade rule is nil"
	}
	return "invalid degrade rule: " + e.rule.String()
}

func invalidRuleErr(r *Rule) error { return &invalidRuleError{rule: r} }
