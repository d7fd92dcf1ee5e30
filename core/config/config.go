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

// Package config holds the process-wide tunables for the engine: the
// statistics windows, resource/context cardinality caps and the warm-up
// cold factor. Values are read-mostly, set to their defaults at package
// initialization and overridden from a YAML file via LoadFromFile.
package config

import (
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v2"
)

const (
	DefaultTotalMetricIntervalMs = 60000
	DefaultSampleCountTotal      = 60
	DefaultSampleCount           = 2
	DefaultIntervalMs            = 1000
	DefaultStatisticMaxRt        = 4900
	DefaultMaxContextNameSize    = 2000
	DefaultMaxResourceCount      = 6000
	DefaultWarmUpColdFactor      = 3
	DefaultAppName               = "sentinel_default_app"

	// DefaultMetricLogFlushIntervalSec is how often the metric aggregator
	// rolls up node statistics into the metric log; 0 disables the task.
	DefaultMetricLogFlushIntervalSec = 0
	DefaultMetricLogSingleFileMaxSize uint64 = 50 // MB
	DefaultMetricLogMaxFileAmount    uint32  = 8
)

// Entity is the YAML-serializable configuration document. It mirrors the
// subset of options this core actually consumes; dashboard/cluster
// sections belong to the (out of scope) transport layer.
type Entity struct {
	AppName string `yaml:"app_name"`
	Metric  struct {
		IntervalMs         uint32 `yaml:"interval_ms"`
		SampleCount         uint32 `yaml:"sample_count"`
		StatisticMaxRt      int64  `yaml:"statistic_max_rt"`
		TotalIntervalMs     uint32 `yaml:"total_interval_ms"`
	} `yaml:"metric"`
	Resource struct {
		MaxResourceCount   uint32 `yaml:"max_resource_count"`
		MaxContextNameSize uint32 `yaml:"max_context_name_size"`
	} `yaml:"resource"`
	FlowControl struct {
		WarmUpColdFactor uint32 `yaml:"warm_up_cold_factor"`
	} `yaml:"flow_control"`
	MetricLog struct {
		FlushIntervalSec uint32 `yaml:"flush_interval_sec"`
		SingleFileMaxSize uint64 `yaml:"single_file_max_size"`
		MaxFileAmount    uint32 `yaml:"max_file_amount"`
	} `yaml:"metric_log"`
}

var (
	appName               atomic.Value
	sampleCount           atomic.Uint32
	intervalMs            atomic.Uint32
	totalMetricIntervalMs atomic.Uint32
	statisticMaxRt        atomic.Int64
	maxContextNameSize    atomic.Uint32
	maxResourceCount      atomic.Uint32
	warmUpColdFactor      atomic.Uint32

	metricLogFlushIntervalSec  atomic.Uint32
	metricLogSingleFileMaxSize atomic.Uint64
	metricLogMaxFileAmount     atomic.Uint32
)

func init() {
	ResetToDefault()
}

// ResetToDefault restores every tunable to its documented default. Tests
// that mutate global config should defer this.
func ResetToDefault() {
	appName.Store(DefaultAppName)
	sampleCount.Store(DefaultSampleCount)
	intervalMs.Store(DefaultIntervalMs)
	totalMetricIntervalMs.Store(DefaultTotalMetricIntervalMs)
	statisticMaxRt.Store(DefaultStatisticMaxRt)
	maxContextNameSize.Store(DefaultMaxContextNameSize)
	maxResourceCount.Store(DefaultMaxResourceCount)
	warmUpColdFactor.Store(DefaultWarmUpColdFactor)
	metricLogFlushIntervalSec.Store(DefaultMetricLogFlushIntervalSec)
	metricLogSingleFileMaxSize.Store(DefaultMetricLogSingleFileMaxSize)
	metricLogMaxFileAmount.Store(DefaultMetricLogMaxFileAmount)
}

// LoadFromFile overrides defaults from a YAML document. Unset fields keep
// their current value. This is the one configuration source the core
// itself understands; dashboard push and remote datasources build on top
// of the rule-manager's SentinelProperty bridge instead.
func LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var e Entity
	if err := yaml.Unmarshal(data, &e); err != nil {
		return err
	}
	ApplyEntity(&e)
	return nil
}

// ApplyEntity applies every non-zero field of e over the current config.
func ApplyEntity(e *Entity) {
	if e.AppName != "" {
		appName.Store(e.AppName)
	}
	if e.Metric.SampleCount > 0 {
		sampleCount.Store(e.Metric.SampleCount)
	}
	if e.Metric.IntervalMs > 0 {
		intervalMs.Store(e.Metric.IntervalMs)
	}
	if e.Metric.TotalIntervalMs > 0 {
		totalMetricIntervalMs.Store(e.Metric.TotalIntervalMs)
	}
	if e.Metric.StatisticMaxRt > 0 {
		statisticMaxRt.Store(e.Metric.StatisticMaxRt)
	}
	if e.Resource.MaxContextNameSize > 0 {
		maxContextNameSize.Store(e.Resource.MaxContextNameSize)
	}
	if e.Resource.MaxResourceCount > 0 {
		maxResourceCount.Store(e.Resource.MaxResourceCount)
	}
	if e.FlowControl.WarmUpColdFactor > 0 {
		warmUpColdFactor.Store(e.FlowControl.WarmUpColdFactor)
	}
	if e.MetricLog.FlushIntervalSec > 0 {
		metricLogFlushIntervalSec.Store(e.MetricLog.FlushIntervalSec)
	}
	if e.MetricLog.SingleFileMaxSize > 0 {
		metricLogSingleFileMaxSize.Store(e.MetricLog.SingleFileMaxSize)
	}
	if e.MetricLog.MaxFileAmount > 0 {
		metricLogMaxFileAmount.Store(e.MetricLog.MaxFileAmount)
	}
}

func AppName() string { return appName.Load().(string) }

// SampleCount is the bucket count of the short (real-time) sliding window.
func SampleCount() uint32 { return sampleCount.Load() }

// IntervalMs is the total span, in milliseconds, of the short sliding
// window used for rate-based rule evaluation.
func IntervalMs() uint32 { return intervalMs.Load() }

// TotalMetricIntervalMs is the span of the long (minute-granularity)
// sliding window kept per node for reporting purposes.
func TotalMetricIntervalMs() uint32 { return totalMetricIntervalMs.Load() }

// SampleCountTotal is the bucket count of the long sliding window; it is
// fixed at one bucket per second.
func SampleCountTotal() uint32 {
	return TotalMetricIntervalMs() / 1000
}

func StatisticMaxRt() int64 { return statisticMaxRt.Load() }

func MaxContextNameSize() uint32 { return maxContextNameSize.Load() }

func MaxResourceCount() uint32 { return maxResourceCount.Load() }

func WarmUpColdFactor() uint32 {
	v := warmUpColdFactor.Load()
	if v == 0 {
		return DefaultWarmUpColdFactor
	}
	return v
}

// MetricLogFlushIntervalSec is how often the metric aggregator rolls up
// node statistics into the metric log; 0 disables the background task.
func MetricLogFlushIntervalSec() uint32 { return metricLogFlushIntervalSec.Load() }

// MetricLogSingleFileMaxSize is the rotation threshold, in megabytes, for
// a single metric log file.
func MetricLogSingleFileMaxSize() uint64 { return metricLogSingleFileMaxSize.Load() }

// MetricLogMaxFileAmount is the number of rotated metric log backups kept.
func MetricLogMaxFileAmount() uint32 { return metricLogMaxFileAmount.Load() }
