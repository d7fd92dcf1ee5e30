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
	"sync/atomic"

	"github.com/aegisflow/aegis/logging"
	"go.uber.org/multierr"
)

// ruleMap groups rules by resource name; a resource is checked against
// every rule registered for it.
type ruleMap = map[string][]*Rule

var currentRules atomic.Value // ruleMap

func init() {
	currentRules.Store(make(ruleMap))
}

// LoadRules atomically replaces the active rule set. Invalid rules
// (blank resource, empty LimitApp) are dropped; every rejection is
// aggregated with multierr and logged once as a single WARN record
// rather than one line per bad rule.
func LoadRules(rules []*Rule) {
	newMap := make(ruleMap)
	var errs error
	for _, r := range rules {
		if r == nil || !r.isValid() {
			errs = multierr.Append(errs, newInvalidRuleError(r))
			continue
		}
		newMap[r.Resource] = append(newMap[r.Resource], r)
	}
	if errs != nil {
		logging.Warn("[AuthorityRuleManager] dropped invalid rules while loading", "errors", errs.Error())
	}
	currentRules.Store(newMap)
}

func GetRules() []*Rule {
	m := currentRules.Load().(ruleMap)
	out := make([]*Rule, 0, len(m))
	for _, rs := range m {
		out = append(out, rs...)
	}
	return out
}

func rulesFor(resource string) []*Rule {
	m := currentRules.Load().(ruleMap)
	return m[resource]
}

func newInvalidRuleError(r *Rule) error {
	if r == nil {
		return errNilRule
	}
	return &invalidRuleError{rule: r}
}

var errNilRule = &invalidRuleError{}

type invalidRuleError struct {
	rule *Rule
}

func (e *invalidRuleError) Error() string {
	if e.rule == nil {
		return "authority rule is nil"
	}
	return "invalid authority rule: " + e.rule.String()
}
