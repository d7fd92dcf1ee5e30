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

// SliceHeader mirrors the layout of reflect.SliceHeader. It is used by the
// leap array to obtain the base address of its backing slice so bucket
// slots can be addressed and CAS'd directly via unsafe.Pointer arithmetic.
type SliceHeader struct {
	Data uintptr
	Len  int
	Cap  int
}
