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

// Package circuitbreaker implements degrade rules: per-resource circuit
// breakers with AVG_RT, EXCEPTION_RATIO and EXCEPTION_COUNT grades, each
// running the CLOSED -> OPEN -> HALF_OPEN -> {CLOSED | OPEN} state machine.
package circuitbreaker

import "fmt"

// Grade selects the measurement a DegradeRule's threshold is compared
// against.
type Grade int8

const (
	AvgRT Grade = iota
	ExceptionRatio
	ExceptionCount
)

const (
	DefaultMinRequestAmount   uint64  = 5
	DefaultSlowRatioThreshold float64 = 1.0
	DefaultStatIntervalMs     uint32  = 1000
)

// Rule configures one circuit breaker. Count is grade-dependent: a RT
// ceiling in milliseconds for AVG_RT, a ratio in [0,1] for
// EXCEPTION_RATIO, an absolute count for EXCEPTION_COUNT.
type Rule struct {
	Resource           string  `yaml:"resource" json:"resource"`
	Grade              Grade   `yaml:"grade" json:"grade"`
	Count              float64 `yaml:"count" json:"count"`
	TimeWindow         uint32  `yaml:"timeWindow" json:"timeWindow"` // recovery seconds (OPEN duration)
	MinRequestAmount   uint64  `yaml:"minRequestAmount" json:"minRequestAmount"`
	SlowRatioThreshold float64 `yaml:"slowRatioThreshold" json:"slowRatioThreshold"`
	StatIntervalMs     uint32  `yaml:"statIntervalMs" json:"statIntervalMs"`
}

func (r *Rule) ResourceName() string { return r.Resource }

func (r *Rule) String() string {
	return fmt.Sprintf("DegradeRule{resource=%s, grade=%d, count=%.2f, timeWindow=%d, minRequestAmount=%d}",
		r.Resource, r.Grade, r.Count, r.TimeWindow, r.MinRequestAmount)
}

func (r *Rule) isValid() bool {
	if r.Resource == "" || r.TimeWindow == 0 {
		return false
	}
	if r.Grade == ExceptionRatio && (r.Count < 0 || r.Count > 1) {
		return false
	}
	return r.Count >= 0
}

func (r *Rule) minRequestAmount() uint64 {
	if r.MinRequestAmount == 0 {
		return DefaultMinRequestAmount
	}
	return r.MinRequestAmount
}

func (r *Rule) slowRatioThreshold() float64 {
	if r.SlowRatioThreshold == 0 {
		return DefaultSlowRatioThreshold
	}
	return r.SlowRatioThreshold
}

func (r *Rule) statIntervalMs() uint32 {
	if r.StatIntervalMs == 0 {
		return DefaultStatIntervalMs
	}
	return r.StatIntervalMs
}
