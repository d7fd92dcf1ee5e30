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
	"fmt"
	"runtime/debug"
)

// Panicker is invoked whenever RunWithRecover catches a panic from one of
// the engine's background goroutines (metric flushing, system-load
// sampling). The default just renders the stack; callers
// that wire a logging package in should replace it.
var Panicker = func(err interface{}, stack []byte) {
	fmt.Printf("panic recovered: %v\n%s\n", err, stack)
}

// RunWithRecover runs f on the current goroutine, recovering any panic so
// a single faulty background task never takes down the host process.
func RunWithRecover(f func()) {
	defer func() {
		if err := recover(); err != nil {
			Panicker(err, debug.Stack())
		}
	}()
	f()
}
