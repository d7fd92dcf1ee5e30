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

package base

import (
	"bytes"
	"runtime"
	"strconv"
)

// goroutineID extracts the numeric id Go's runtime assigns the calling
// goroutine from its stack trace header ("goroutine 123 [running]: ...").
// Go deliberately exposes no public goroutine-local-storage API; parsing
// the stack header is the same technique used by the ecosystem's
// goroutine-local-storage packages (e.g. jtolds/gls, petermattis/goid).
// It keys the task-local Context binding, one per goroutine.
func goroutineID() int64 {
	buf := make([]byte, 64)
	n := runtime.Stack(buf, false)
	buf = buf[:n]
	// Format: "goroutine 123 [running]:\n..."
	const prefix = "goroutine "
	if !bytes.HasPrefix(buf, []byte(prefix)) {
		return -1
	}
	buf = buf[len(prefix):]
	idx := bytes.IndexByte(buf, ' ')
	if idx < 0 {
		return -1
	}
	id, err := strconv.ParseInt(string(buf[:idx]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
