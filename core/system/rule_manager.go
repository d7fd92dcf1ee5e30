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

package system

import (
	"sync/atomic"

	"github.com/aegisflow/aegis/logging"
	"go.uber.org/multierr"
)

var currentRules atomic.Value // []*Rule

func init() {
	currentRules.Store(make([]*Rule, 0))
}

func LoadRules(rules []*Rule) {
	valid := make([]*Rule, 0, len(rules))
	var errs error
	for _, r := range rules {
		if r == nil || !r.isValid() {
			errs = multierr.Append(errs, invalidRuleErr(r))
			continue
		}
		valid = append(valid, r)
	}
	if errs != nil {
		logging.Warn("[SystemRuleManager] dropped invalid rules while loading", "errors", errs.Error())
	}
	currentRules.Store(valid)
}

func GetRules() []*Rule {
	return append([]*Rule(nil), currentRules.Load().([]*Rule)...)
}

func rulesOf(mt MetricType) []*Rule {
	var out []*Rule
	for _, r := range currentRules.Load().([]*Rule) {
		if r.MetricType == mt {
			out = append(out, r)
		}
	}
	return out
}

type invalidRuleError struct{ rule *Rule }

func (e *invalidRuleError) Error() string {
	if e.rule == nil {
		return "system rule is nil"
	}
	return "invalid system rule: " + e.rule.String()
}

func invalidRuleErr(r *Rule) error { return &invalidRuleError{rule: r} }
