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

// Package logging provides the structured logging facade used throughout
// the engine. Blocks, rule reloads and internal (fail-open) errors all
// flow through here so the embedding application can redirect them to its
// own logging pipeline by swapping the global Logger.
package logging

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Level enumerates the severity of a log record.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger is the structured logging contract the engine depends on. Each
// method takes a message and an even number of key/value pairs, mirroring
// the convention of popular structured loggers (zap's SugaredLogger,
// logr) so embedding applications can adapt their own logger with a thin
// shim.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(err error, msg string, keysAndValues ...interface{})
}

var (
	mu      sync.RWMutex
	current Logger = newDefaultLogger()
)

// ResetGlobalLogger swaps the package-level logger, routing engine
// diagnostics into the host application's logging system. A nil logger
// is ignored.
func ResetGlobalLogger(l Logger) {
	if l == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	current = l
}

func get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

func Debug(msg string, keysAndValues ...interface{}) { get().Debug(msg, keysAndValues...) }
func Info(msg string, keysAndValues ...interface{})  { get().Info(msg, keysAndValues...) }
func Warn(msg string, keysAndValues ...interface{})  { get().Warn(msg, keysAndValues...) }
func Error(err error, msg string, keysAndValues ...interface{}) {
	get().Error(err, msg, keysAndValues...)
}

// defaultLogger writes leveled, key=value records to stderr via the
// standard library logger. It is intentionally dependency-free: it is
// the floor every embedding application replaces, not the production
// logging path.
type defaultLogger struct {
	l *log.Logger
}

func newDefaultLogger() *defaultLogger {
	return &defaultLogger{l: log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)}
}

func (d *defaultLogger) Debug(msg string, kv ...interface{}) { d.write("DEBUG", nil, msg, kv) }
func (d *defaultLogger) Info(msg string, kv ...interface{})  { d.write("INFO", nil, msg, kv) }
func (d *defaultLogger) Warn(msg string, kv ...interface{})  { d.write("WARN", nil, msg, kv) }
func (d *defaultLogger) Error(err error, msg string, kv ...interface{}) {
	d.write("ERROR", err, msg, kv)
}

func (d *defaultLogger) write(level string, err error, msg string, kv []interface{}) {
	b := fmt.Sprintf("[%s] %s", level, msg)
	if err != nil {
		b += fmt.Sprintf(" error=%q", err.Error())
	}
	for i := 0; i+1 < len(kv); i += 2 {
		b += fmt.Sprintf(" %v=%v", kv[i], kv[i+1])
	}
	d.l.Println(b)
}

// onceGuard throttles a class of error to log at most once,
// guarding hot paths (e.g. a missing resource node on every flow check)
// from flooding the log when something stays broken.
type onceGuard struct {
	once sync.Once
}

func (o *onceGuard) Do(f func()) {
	o.once.Do(f)
}

// FrequentErrorOnce guards high-frequency fail-open log lines (the flow
// slot's missing resource node, the resource-count cap in core/stat, the
// context-registry overflow in api) from being emitted on every request.
// The guard is shared: only the first of these lines is ever logged.
var FrequentErrorOnce = &onceGuard{}
