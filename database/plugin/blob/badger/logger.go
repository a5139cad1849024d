// Copyright 2026 Blink Labs Software
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

package badger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// logger adapts slog to badger.Logger
type logger struct {
	logger *slog.Logger
}

func newLogger(l *slog.Logger) *logger {
	if l == nil {
		l = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &logger{logger: l.With("component", "database")}
}

func (l *logger) log(level slog.Level, msg string, args ...any) {
	l.logger.Log(context.Background(), level, "badger: "+fmt.Sprintf(msg, args...))
}

func (l *logger) Errorf(msg string, args ...any) {
	l.log(slog.LevelError, msg, args...)
}

func (l *logger) Warningf(msg string, args ...any) {
	l.log(slog.LevelWarn, msg, args...)
}

func (l *logger) Infof(msg string, args ...any) {
	l.log(slog.LevelInfo, msg, args...)
}

func (l *logger) Debugf(msg string, args ...any) {
	l.log(slog.LevelDebug, msg, args...)
}
