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

package datasource

import (
	"github.com/aegisflow/aegis/core/authority"
	"github.com/aegisflow/aegis/core/circuitbreaker"
	"github.com/aegisflow/aegis/core/flow"
	"github.com/aegisflow/aegis/core/system"
)

// FlowRuleListener forwards property updates to flow.LoadRules.
type FlowRuleListener struct{}

func (FlowRuleListener) ConfigUpdate(rules []*flow.Rule) error {
	flow.LoadRules(rules)
	return nil
}

// AuthorityRuleListener forwards property updates to authority.LoadRules.
type AuthorityRuleListener struct{}

func (AuthorityRuleListener) ConfigUpdate(rules []*authority.Rule) error {
	authority.LoadRules(rules)
	return nil
}

// SystemRuleListener forwards property updates to system.LoadRules.
type SystemRuleListener struct{}

func (SystemRuleListener) ConfigUpdate(rules []*system.Rule) error {
	system.LoadRules(rules)
	return nil
}

// DegradeRuleListener forwards property updates to circuitbreaker.LoadRules.
type DegradeRuleListener struct{}

func (DegradeRuleListener) ConfigUpdate(rules []*circuitbreaker.Rule) error {
	circuitbreaker.LoadRules(rules)
	return nil
}
