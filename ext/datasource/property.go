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

// Package datasource bridges external rule sources (files today; a remote
// push source would plug in the same way) to the rule managers in
// core/flow, core/authority, core/system and core/circuitbreaker. The core
// itself only ever calls LoadRules directly — everything in this package
// is optional wiring for applications that want rules to change without a
// restart.
package datasource

import (
	"sync"

	"go.uber.org/multierr"
)

// Property is a value that changes over the life of the process and whose
// updates can be observed.
type Property[T any] interface {
	GetValue() T
}

// PropertyListener is notified every time the Property it is registered
// against receives a new value.
type PropertyListener[T any] interface {
	ConfigUpdate(value T) error
}

// SentinelProperty is the concrete Property every DataSource in this
// package publishes through: a held value plus its listener set, updated
// under a single lock so GetValue never observes a partial write.
type SentinelProperty[T any] struct {
	mu        sync.RWMutex
	value     T
	listeners []PropertyListener[T]
}

func NewSentinelProperty[T any]() *SentinelProperty[T] {
	return &SentinelProperty[T]{}
}

func (p *SentinelProperty[T]) GetValue() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.value
}

func (p *SentinelProperty[T]) AddListener(l PropertyListener[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, l)
}

// UpdateValue stores v and notifies every listener, collecting (not
// short-circuiting on) individual listener errors so one bad rule kind
// does not prevent the others from picking up the change.
func (p *SentinelProperty[T]) UpdateValue(v T) error {
	p.mu.Lock()
	p.value = v
	listeners := make([]PropertyListener[T], len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	var errs error
	for _, l := range listeners {
		if err := l.ConfigUpdate(v); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// DataSource produces updates for a Property from some external source —
// a file on disk, a remote config push, etc.
type DataSource interface {
	Initialize() error
	Close() error
}
