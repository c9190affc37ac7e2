// Copyright 2025 The Nancy Authors
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

package nancy

import (
	"fmt"
	"strings"
	"sync"
)

// TraceLog collects the steps the engine took for one request. It is
// written to the logger at debug level when request tracing is enabled.
type TraceLog struct {
	mu      sync.Mutex
	enabled bool
	lines   []string
}

func newTraceLog(enabled bool) *TraceLog {
	return &TraceLog{enabled: enabled}
}

// Writef appends a formatted line. It does nothing when tracing is off.
func (t *TraceLog) Writef(format string, args ...any) {
	if t == nil || !t.enabled {
		return
	}
	line := fmt.Sprintf(format, args...)
	t.mu.Lock()
	t.lines = append(t.lines, line)
	t.mu.Unlock()
}

// Lines returns a copy of the collected lines.
func (t *TraceLog) Lines() []string {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.lines...)
}

func (t *TraceLog) String() string {
	return strings.Join(t.Lines(), "\n")
}
