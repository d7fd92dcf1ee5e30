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

package circuitbreaker

import (
	"sync/atomic"

	"github.com/aegisflow/aegis/logging"
	"github.com/aegisflow/aegis/util"
)

// State is one node of the CLOSED -> OPEN -> HALF_OPEN -> {CLOSED | OPEN}
// machine. Every transition goes through a single CAS on breaker.state so
// concurrent callers agree on exactly one winner per transition.
type State int32

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "CLOSED"
	case Open:
		return "OPEN"
	case HalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// CircuitBreaker is the interface the DegradeSlot and its stat recorder
// consult: TryPass gates admission (and claims the single HALF_OPEN
// probe), RecordResult feeds the outcome of a completed call back into the
// breaker's window and may trigger OPEN.
type CircuitBreaker interface {
	Rule() *Rule
	CurrentState() State
	TryPass() bool
	RecordResult(rt uint64, isError bool)
}

// breaker holds the state shared by every grade: the CAS'd state cell, the
// OPEN timestamp, the HALF_OPEN probe claim, and the sliding window of
// completed-call counters.
type breaker struct {
	rule *Rule

	state  int32 // atomic State
	openAt int64 // atomic, ms

	probing int32 // atomic, 1 while a HALF_OPEN probe is in flight

	counter *slidingCounter
}

func newBreaker(rule *Rule) (*breaker, error) {
	sc, err := newSlidingCounter(rule.statIntervalMs())
	if err != nil {
		return nil, err
	}
	return &breaker{rule: rule, state: int32(Closed), counter: sc}, nil
}

func (b *breaker) Rule() *Rule { return b.rule }

func (b *breaker) CurrentState() State {
	b.tryRecoverFromOpen()
	return State(atomic.LoadInt32(&b.state))
}

// tryRecoverFromOpen transitions OPEN -> HALF_OPEN once the recovery
// window has elapsed; the CAS ensures only one goroutine performs it.
func (b *breaker) tryRecoverFromOpen() {
	if State(atomic.LoadInt32(&b.state)) != Open {
		return
	}
	now := int64(util.CurrentTimeMillis())
	openAt := atomic.LoadInt64(&b.openAt)
	if now-openAt < int64(b.rule.TimeWindow)*1000 {
		return
	}
	if atomic.CompareAndSwapInt32(&b.state, int32(Open), int32(HalfOpen)) {
		atomic.StoreInt32(&b.probing, 0)
		logging.Info("[CircuitBreaker] state transition", "resource", b.rule.Resource, "from", "OPEN", "to", "HALF_OPEN")
	}
}

// TryPass admits the call iff the breaker is CLOSED, or iff it is
// HALF_OPEN and this caller wins the single-probe CAS.
func (b *breaker) TryPass() bool {
	switch b.CurrentState() {
	case Closed:
		return true
	case HalfOpen:
		return atomic.CompareAndSwapInt32(&b.probing, 0, 1)
	default: // Open
		return false
	}
}

func (b *breaker) openNow() {
	atomic.StoreInt64(&b.openAt, int64(util.CurrentTimeMillis()))
	atomic.StoreInt32(&b.state, int32(Open))
	logging.Warn("[CircuitBreaker] resource degraded, breaker OPEN", "resource", b.rule.Resource)
}

func (b *breaker) closeNow() {
	atomic.StoreInt32(&b.state, int32(Closed))
	atomic.StoreInt32(&b.probing, 0)
	b.counter.reset()
	logging.Info("[CircuitBreaker] state transition", "resource", b.rule.Resource, "from", "HALF_OPEN", "to", "CLOSED")
}

// avgRTBreaker triggers OPEN when the share of slow calls (RT over the
// rule's count, in ms) reaches slowRatioThreshold.
type avgRTBreaker struct{ *breaker }

func newAvgRTBreaker(rule *Rule) (*avgRTBreaker, error) {
	b, err := newBreaker(rule)
	if err != nil {
		return nil, err
	}
	return &avgRTBreaker{b}, nil
}

func (a *avgRTBreaker) RecordResult(rt uint64, isError bool) {
	if State(atomic.LoadInt32(&a.state)) == HalfOpen {
		if float64(rt) <= a.rule.Count {
			a.closeNow()
		} else {
			a.openNow()
		}
		return
	}
	a.counter.recordPass(rt, a.rule.Count, isError)
	total, _, slow := a.counter.totals()
	if uint64(total) < a.rule.minRequestAmount() {
		return
	}
	if float64(slow)/float64(total) >= a.rule.slowRatioThreshold() {
		a.openNow()
	}
}

// exceptionRatioBreaker triggers OPEN when exception/total reaches count.
type exceptionRatioBreaker struct{ *breaker }

func newExceptionRatioBreaker(rule *Rule) (*exceptionRatioBreaker, error) {
	b, err := newBreaker(rule)
	if err != nil {
		return nil, err
	}
	return &exceptionRatioBreaker{b}, nil
}

func (e *exceptionRatioBreaker) RecordResult(rt uint64, isError bool) {
	if State(atomic.LoadInt32(&e.state)) == HalfOpen {
		if !isError {
			e.closeNow()
		} else {
			e.openNow()
		}
		return
	}
	e.counter.recordPass(rt, 0, isError)
	total, errCount, _ := e.counter.totals()
	if uint64(total) < e.rule.minRequestAmount() {
		return
	}
	if float64(errCount)/float64(total) >= e.rule.Count {
		e.openNow()
	}
}

// exceptionCountBreaker triggers OPEN when the absolute exception count
// over the window reaches count.
type exceptionCountBreaker struct{ *breaker }

func newExceptionCountBreaker(rule *Rule) (*exceptionCountBreaker, error) {
	b, err := newBreaker(rule)
	if err != nil {
		return nil, err
	}
	return &exceptionCountBreaker{b}, nil
}

func (e *exceptionCountBreaker) RecordResult(rt uint64, isError bool) {
	if State(atomic.LoadInt32(&e.state)) == HalfOpen {
		if !isError {
			e.closeNow()
		} else {
			e.openNow()
		}
		return
	}
	e.counter.recordPass(rt, 0, isError)
	total, errCount, _ := e.counter.totals()
	if uint64(total) < e.rule.minRequestAmount() {
		return
	}
	if float64(errCount) >= e.rule.Count {
		e.openNow()
	}
}

// NewCircuitBreaker builds the grade-appropriate breaker for rule.
func NewCircuitBreaker(rule *Rule) (CircuitBreaker, error) {
	switch rule.Grade {
	case AvgRT:
		return newAvgRTBreaker(rule)
	case ExceptionCount:
		return newExceptionCountBreaker(rule)
	default: // ExceptionRatio
		return newExceptionRatioBreaker(rule)
	}
}
