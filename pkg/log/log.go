// Copyright 2018 The gVisor Authors.
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

// Package log is the package-level logging facility used throughout
// pkg/sentry/kernel, mirroring the teacher's pkg/log: level-gated
// Debugf/Infof/Warningf functions backed by a swappable Logger, rather than
// the standard library's log package.
package log

import (
	"github.com/sirupsen/logrus"
)

// Fields carries structured key/value pairs alongside a log line, e.g.
// "signal", "pid", "tid".
type Fields = logrus.Fields

// Logger is the package-level entry point. Tests may replace it with a
// logger pointed at a buffer to assert on emitted diagnostics.
var Logger = logrus.StandardLogger()

// Debugf logs at debug level.
func Debugf(format string, args ...any) {
	Logger.Debugf(format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...any) {
	Logger.Infof(format, args...)
}

// Warningf logs at warning level.
func Warningf(format string, args ...any) {
	Logger.Warnf(format, args...)
}

// WithFields returns an entry carrying structured fields, e.g. the fatal
// unhandled-signal debug print naming process id, process name, and signal
//.
func WithFields(f Fields) *logrus.Entry {
	return Logger.WithFields(f)
}
