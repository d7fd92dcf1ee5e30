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

package util

import (
	"time"
)

// CurrentTimeMillis returns the current wall-clock time, in milliseconds,
// as an unsigned integer. All statistics bookkeeping (leap array bucket
// selection, entry RT measurement) is keyed off this single source so
// that bucket math stays consistent across goroutines.
func CurrentTimeMillis() uint64 {
	return uint64(time.Now().UnixNano() / int64(time.Millisecond))
}

// CurrentTimeNano returns the current wall-clock time in nanoseconds.
func CurrentTimeNano() uint64 {
	return uint64(time.Now().UnixNano())
}

// Sleep suspends the calling goroutine for the given duration in
// nanoseconds. It is the single suspension point used by the throttling
// shaper.
func Sleep(nanos int64) {
	if nanos <= 0 {
		return
	}
	time.Sleep(time.Duration(nanos))
}
