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

// Package system implements the single global system-load admission
// gate: up to five independent thresholds (threads, QPS, avg RT, load
// average with a BBR-style capacity guard, CPU usage) evaluated against
// the process-wide inbound entrance node.
package system

import "fmt"

// MetricType selects which of the five thresholds a SystemRule enforces.
// A process typically registers one rule per MetricType it cares about;
// all active rules are evaluated and any violation blocks.
type MetricType int8

const (
	Load MetricType = iota
	AvgRT
	Concurrency
	InboundQPS
	CPUUsage
)

func (m MetricType) String() string {
	switch m {
	case Load:
		return "Load"
	case AvgRT:
		return "AvgRT"
	case Concurrency:
		return "Concurrency"
	case InboundQPS:
		return "InboundQPS"
	case CPUUsage:
		return "CPUUsage"
	default:
		return "Undefined"
	}
}

// Rule names one of the five system-level thresholds. TriggerCount is
// interpreted according to MetricType: thread count, QPS, milliseconds,
// 1-minute load average, or a CPU usage fraction in [0,1].
type Rule struct {
	ID           string     `yaml:"id" json:"id"`
	MetricType   MetricType `yaml:"metricType" json:"metricType"`
	TriggerCount float64    `yaml:"triggerCount" json:"triggerCount"`
}

func (r *Rule) ResourceName() string { return "system" }

func (r *Rule) String() string {
	return fmt.Sprintf("SystemRule{metricType=%s, triggerCount=%.2f}", r.MetricType, r.TriggerCount)
}

func (r *Rule) isValid() bool {
	return r.TriggerCount >= 0
}
