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

package datasource

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/aegisflow/aegis/logging"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v2"
)

// Converter decodes a rule file's raw bytes into the rule-list type T.
type Converter[T any] func([]byte) (T, error)

// YAMLConverter builds a Converter that unmarshals into a fresh *new(T).
func YAMLConverter[T any]() Converter[T] {
	return func(data []byte) (T, error) {
		var v T
		if err := yaml.Unmarshal(data, &v); err != nil {
			return v, err
		}
		return v, nil
	}
}

// FileDataSource watches one file on disk and republishes its decoded
// contents to property on every write, using fsnotify rather than polling.
type FileDataSource[T any] struct {
	path     string
	convert  Converter[T]
	property *SentinelProperty[T]

	watcher   *fsnotify.Watcher
	stopCh    chan struct{}
	closeOnce sync.Once
}

func NewFileDataSource[T any](path string, convert Converter[T], property *SentinelProperty[T]) *FileDataSource[T] {
	return &FileDataSource[T]{
		path:     path,
		convert:  convert,
		property: property,
		stopCh:   make(chan struct{}),
	}
}

// Initialize performs the first load and starts watching for subsequent
// writes. The containing directory (not the file itself) is watched,
// since editors commonly replace a file via rename rather than writing it
// in place, which fsnotify cannot follow by watching the file path alone.
func (f *FileDataSource[T]) Initialize() error {
	if err := f.loadOnce(); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return err
	}
	f.watcher = w
	go f.watchLoop()
	return nil
}

func (f *FileDataSource[T]) loadOnce() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return err
	}
	v, err := f.convert(data)
	if err != nil {
		return err
	}
	return f.property.UpdateValue(v)
}

func (f *FileDataSource[T]) watchLoop() {
	for {
		select {
		case ev, ok := <-f.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(f.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := f.loadOnce(); err != nil {
				logging.Error(err, "[FileDataSource] failed to reload rule file", "path", f.path)
			}
		case err, ok := <-f.watcher.Errors:
			if !ok {
				return
			}
			logging.Error(err, "[FileDataSource] watcher error", "path", f.path)
		case <-f.stopCh:
			return
		}
	}
}

func (f *FileDataSource[T]) Close() error {
	var err error
	f.closeOnce.Do(func() {
		close(f.stopCh)
		if f.watcher != nil {
			err = f.watcher.Close()
		}
	})
	return err
}
