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

// TrafficType describes the direction of a resource invocation.
// Only Inbound traffic is subject to system-level admission rules.
type TrafficType int32

const (
	Inbound TrafficType = iota
	Outbound
)

func (t TrafficType) String() string {
	switch t {
	case Inbound:
		return "Inbound"
	case Outbound:
		return "Outbound"
	default:
		return "Undefined"
	}
}

// ResourceType loosely classifies what kind of call a resource names;
// it has no bearing on rule evaluation but is reported alongside metrics.
type ResourceType int32

const (
	ResTypeCommon ResourceType = iota
	ResTypeWeb
	ResTypeRPC
	ResTypeAPIGateway
	ResTypeDBSQL
	ResTypeCache
	ResTypeMQ
)

// ResourceWrapper names a protected resource: a non-empty identifier plus
// its traffic direction and type. Identity for rule matching and node
// lookup is the Name alone; FlowType and Classification are metadata.
type ResourceWrapper struct {
	name           string
	classification ResourceType
	flowType       TrafficType
}

func NewResourceWrapper(name string, classification ResourceType, flowType TrafficType) *ResourceWrapper {
	return &ResourceWrapper{name: name, classification: classification, flowType: flowType}
}

func (r *ResourceWrapper) Name() string                  { return r.name }
func (r *ResourceWrapper) Classification() ResourceType   { return r.classification }
func (r *ResourceWrapper) FlowType() TrafficType          { return r.flowType }
func (r *ResourceWrapper) String() string                 { return r.name }
