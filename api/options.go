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

package api

import "github.com/aegisflow/aegis/core/base"

// EntryOptions collects the parameters of one entry() call. Built from
// defaults and mutated by whichever Option functions the caller passes.
type EntryOptions struct {
	resourceType base.ResourceType
	trafficType  base.TrafficType
	batchCount   uint32
	flag         int32
	args         []interface{}
	origin       string
	contextName  string
}

func defaultEntryOptions() *EntryOptions {
	return &EntryOptions{
		resourceType: base.ResTypeCommon,
		trafficType:  base.Inbound,
		batchCount:   1,
	}
}

// Option mutates an in-construction EntryOptions; see the With* functions.
type Option func(*EntryOptions)

func WithResourceType(t base.ResourceType) Option {
	return func(o *EntryOptions) { o.resourceType = t }
}

func WithTrafficType(t base.TrafficType) Option {
	return func(o *EntryOptions) { o.trafficType = t }
}

func WithBatchCount(count uint32) Option {
	return func(o *EntryOptions) { o.batchCount = count }
}

func WithFlag(flag int32) Option {
	return func(o *EntryOptions) { o.flag = flag }
}

func WithArgs(args ...interface{}) Option {
	return func(o *EntryOptions) { o.args = args }
}

// WithOrigin attributes the call to an upstream caller identity, consulted
// by authority rules and the flow DIRECT strategy's limitApp matching.
func WithOrigin(origin string) Option {
	return func(o *EntryOptions) { o.origin = origin }
}

// WithContextName binds the entry to a named Context rather than whatever
// is already attached to the calling goroutine, relevant to the flow
// CHAIN strategy's refResource matching.
func WithContextName(name string) Option {
	return func(o *EntryOptions) { o.contextName = name }
}
