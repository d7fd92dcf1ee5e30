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

// Package authority implements origin whitelist/blacklist admission: a
// RuleCheckSlot that consults per-resource authority rules to allow or
// deny callers by origin.
package authority

import "fmt"

type Strategy int8

const (
	AuthorityWhite Strategy = iota
	AuthorityBlack
)

// Rule restricts a resource to (whitelist) or forbids it from (blacklist)
// a set of LimitApp origins.
type Rule struct {
	Resource string   `yaml:"resource" json:"resource"`
	Strategy Strategy `yaml:"strategy" json:"strategy"`
	LimitApp []string `yaml:"limitApp" json:"limitApp"`
}

func (r *Rule) ResourceName() string { return r.Resource }

func (r *Rule) String() string {
	return fmt.Sprintf("AuthorityRule{resource=%s, strategy=%d, limitApp=%v}", r.Resource, r.Strategy, r.LimitApp)
}

func (r *Rule) isValid() bool {
	return r.Resource != "" && len(r.LimitApp) > 0
}
