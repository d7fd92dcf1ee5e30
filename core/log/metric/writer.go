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

package metric

import (
	"encoding/json"
	"fmt"

	"github.com/aegisflow/aegis/core/base"
	"gopkg.in/natefinch/lumberjack.v2"
)

// MetricLogWriter persists one timestamp's worth of aggregated
// MetricItems. Write is called once per distinct bucket timestamp, in
// ascending time order, by the aggregator's flush loop.
type MetricLogWriter interface {
	Write(timestamp uint64, items []*base.MetricItem) error
}

// defaultMetricLogWriter writes one JSON line per MetricItem to a
// size-and-count-rotated log file, handing rotation to lumberjack rather
// than reimplementing file rollover.
type defaultMetricLogWriter struct {
	logger *lumberjack.Logger
}

// NewDefaultMetricLogWriter builds a writer rotating at
// singleFileMaxSize megabytes, retaining at most maxFileAmount backups.
func NewDefaultMetricLogWriter(singleFileMaxSize uint64, maxFileAmount uint32) (MetricLogWriter, error) {
	if singleFileMaxSize == 0 {
		return nil, fmt.Errorf("metric log: singleFileMaxSize must be positive")
	}
	return &defaultMetricLogWriter{
		logger: &lumberjack.Logger{
			Filename:   "./logs/sentinel-metrics.log",
			MaxSize:    int(singleFileMaxSize),
			MaxBackups: int(maxFileAmount),
			Compress:   false,
		},
	}, nil
}

func (w *defaultMetricLogWriter) Write(timestamp uint64, items []*base.MetricItem) error {
	for _, item := range items {
		b, err := json.Marshal(item)
		if err != nil {
			return err
		}
		b = append(b, '\n')
		if _, err := w.logger.Write(b); err != nil {
			return err
		}
	}
	return nil
}
