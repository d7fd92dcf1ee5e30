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

// Package flow implements flow-control rules and their shapers: direct
// reject, warm-up, throttling (leaky bucket) and warm-up+throttling.
package flow

import (
	"fmt"

	"github.com/aegisflow/aegis/core/base"
)

// Grade selects the measurement a FlowRule's threshold is compared
// against.
type Grade int8

const (
	Thread Grade = iota
	QPS
)

// RelationStrategy picks which node's statistic is checked against the
// threshold.
type RelationStrategy int8

const (
	Direct RelationStrategy = iota
	AssociatedResource
	Chain
)

// ControlBehavior selects the shaper used once the strategy's node and
// the grade's measurement are known.
type ControlBehavior int8

const (
	Reject ControlBehavior = iota
	WarmUp
	Throttling
	WarmUpThrottling
)

// Rule configures one flow-control check for a resource: a threshold
// grade, the relation strategy selecting which node to measure, and the
// control behavior shaping how excess traffic is handled.
type Rule struct {
	Resource         string           `yaml:"resource" json:"resource"`
	LimitApp         string           `yaml:"limitApp" json:"limitApp"`
	Grade            Grade            `yaml:"grade" json:"grade"`
	Count            float64          `yaml:"count" json:"count"`
	RelationStrategy RelationStrategy `yaml:"strategy" json:"strategy"`
	RefResource      string           `yaml:"refResource" json:"refResource"`
	ControlBehavior  ControlBehavior  `yaml:"controlBehavior" json:"controlBehavior"`
	WarmUpPeriodSec  uint32           `yaml:"warmUpPeriodSec" json:"warmUpPeriodSec"`
	WarmUpColdFactor uint32           `yaml:"warmUpColdFactor" json:"warmUpColdFactor"`
	MaxQueueingTimeMs uint32          `yaml:"maxQueueingTimeMs" json:"maxQueueingTimeMs"`
	ClusterMode      bool             `yaml:"clusterMode" json:"clusterMode"`
}

func (r *Rule) ResourceName() string { return r.Resource }

func (r *Rule) String() string {
	return fmt.Sprintf("FlowRule{resource=%s, limitApp=%s, grade=%d, count=%.2f, strategy=%d, refResource=%s, behavior=%d}",
		r.Resource, r.LimitApp, r.Grade, r.Count, r.RelationStrategy, r.RefResource, r.ControlBehavior)
}

func (r *Rule) isValid() bool {
	if r.Resource == "" || r.Count < 0 {
		return false
	}
	if r.RelationStrategy == Chain && r.RefResource == "" {
		return false
	}
	return true
}

func (r *Rule) limitApp() string {
	if r.LimitApp == "" {
		return base.LimitAppDefault
	}
	return r.LimitApp
}
