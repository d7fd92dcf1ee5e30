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
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aegisflow/aegis/logging"
	"github.com/aegisflow/aegis/util"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"
)

// sampleIntervalMs is the background sampler's cadence, roughly 1Hz as
// specified for the low-frequency system-load refresh task.
const sampleIntervalMs = 1000

var (
	currentCPUUsage atomic.Value // float64
	currentLoad1    atomic.Value // float64

	initOnce sync.Once
)

func init() {
	currentCPUUsage.Store(0.0)
	currentLoad1.Store(0.0)
}

// InitSystemStatCollector starts the background sampler that refreshes
// CPU usage and the 1-minute load average via gopsutil. It is idempotent;
// callers normally trigger it once from api.InitDefault.
func InitSystemStatCollector() {
	initOnce.Do(func() {
		go util.RunWithRecover(func() {
			ticker := util.NewTicker(sampleIntervalMs * time.Millisecond)
			defer ticker.Stop()
			for range ticker.C() {
				sampleOnce()
			}
		})
	})
}

func sampleOnce() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		currentCPUUsage.Store(percents[0] / 100.0)
	} else if err != nil {
		logging.Warn("[system.sampleOnce] failed to sample CPU usage", "err", err.Error())
	}
	if avg, err := load.Avg(); err == nil && avg != nil {
		currentLoad1.Store(avg.Load1)
	} else if err != nil {
		logging.Warn("[system.sampleOnce] failed to sample load average", "err", err.Error())
	}
}

// CurrentCPUUsage returns the most recently sampled CPU usage fraction in
// [0,1].
func CurrentCPUUsage() float64 { return currentCPUUsage.Load().(float64) }

// CurrentLoad returns the most recently sampled 1-minute load average.
func CurrentLoad() float64 { return currentLoad1.Load().(float64) }

// EstimatedCapacity implements a BBR-inspired guard: maxQps (the
// observed passQps over the window) times the minimum
// observed RT, in seconds, yields an estimate of how many concurrent
// requests the process can sustain without the load-average threshold
// alone over-triggering during a brief RT spike.
func EstimatedCapacity(maxQps float64, minRtMs float64) float64 {
	if minRtMs <= 0 {
		return math.MaxFloat64
	}
	return maxQps * (minRtMs / 1000.0)
}

// NumCPU returns the number of logical CPUs usable by the process, as
// runtime.NumCPU does. The load-average guard in Slot.Check does not use it.
func NumCPU() int { return runtime.NumCPU() }
