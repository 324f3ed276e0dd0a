/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements. See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License. You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logging

import (
	"fmt"
	"github.com/gookit/color"
	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
	"github.com/noctarius/change-ingestor/internal/supporting"
	spiconfig "github.com/noctarius/change-ingestor/spi/config"
	"strings"
	"sync"
)

var WithVerbose = false
var WithCaller = false

const VerboseLevel slog.Level = 650

var levelsOnce sync.Once

// state is the process wide logging setup, replaced on every call to
// InitializeLogging. Loggers created before initialization log to the
// console at info level.
var state = struct {
	sync.RWMutex
	config         spiconfig.LoggerConfig
	level          slog.Level
	console        slog.Handler
	consoleEnabled bool
	file           *handler.SyncCloseHandler
}{
	level:          slog.InfoLevel,
	consoleEnabled: true,
}

func registerVerboseLevel() {
	levelsOnce.Do(func() {
		slog.LevelNames[VerboseLevel] = "VERBOSE"
		slog.AllLevels = slog.Levels{
			slog.PanicLevel,
			slog.FatalLevel,
			slog.ErrorLevel,
			slog.WarnLevel,
			slog.NoticeLevel,
			slog.InfoLevel,
			VerboseLevel,
			slog.DebugLevel,
			slog.TraceLevel,
		}
		slog.NormalLevels = slog.Levels{
			slog.InfoLevel,
			slog.NoticeLevel,
			slog.DebugLevel,
			slog.TraceLevel,
			VerboseLevel,
		}
		slog.ColorTheme[VerboseLevel] = color.FgLightGreen
	})
}

// InitializeLogging configures the default level and outputs used by all
// loggers created afterwards.
func InitializeLogging(
	config *spiconfig.Config, logToStdErr bool,
) error {

	registerVerboseLevel()

	_, fileHandler, err := newFileHandler(config.Logging.Outputs.File)
	if err != nil {
		return supporting.AdaptError(err, supporting.ExitCodeLogging)
	}

	state.Lock()
	defer state.Unlock()

	state.config = config.Logging
	state.level = ParseLevel(config.Logging.Level)
	state.console = newConsoleHandler(logToStdErr)
	state.consoleEnabled = config.Logging.Outputs.Console.Enabled == nil ||
		*config.Logging.Outputs.Console.Enabled
	state.file = fileHandler
	return nil
}

type Logger struct {
	slogger *slog.Logger
	level   slog.Level
	name    string
}

// NewLogger creates a named logger. A logger section with the same name
// in the logging configuration overrides level and outputs.
func NewLogger(
	name string,
) (*Logger, error) {

	registerVerboseLevel()

	state.RLock()
	defer state.RUnlock()

	console := state.console
	if console == nil {
		console = newConsoleHandler(false)
	}

	level := state.level
	handlers := make([]slog.Handler, 0, 2)

	if config, found := state.config.Loggers[name]; found {
		if config.Outputs.Console.Enabled == nil || *config.Outputs.Console.Enabled {
			handlers = append(handlers, console)
		}

		configured, fileHandler, err := newFileHandler(config.Outputs.File)
		if err != nil {
			return nil, err
		}
		if configured {
			handlers = append(handlers, fileHandler)
		} else if state.file != nil {
			handlers = append(handlers, state.file)
		}

		if config.Level != nil {
			level = ParseLevel(*config.Level)
		}
	} else {
		if state.consoleEnabled {
			handlers = append(handlers, console)
		}
		if state.file != nil {
			handlers = append(handlers, state.file)
		}
	}

	slogger := slog.NewWithName(name, func(l *slog.Logger) {
		l.CallerSkip = l.CallerSkip + 2
		l.ReportCaller = WithCaller
		l.AddHandlers(handlers...)
	})

	return &Logger{
		slogger: slogger,
		level:   level,
		name:    name,
	}, nil
}

func (l *Logger) Name() string {
	return l.name
}

// Enabled reports if records of the given level are written.
func (l *Logger) Enabled(
	level slog.Level,
) bool {

	return l.level >= level || (level == VerboseLevel && WithVerbose)
}

func (l *Logger) Tracef(format string, args ...any) {
	l.logf(slog.TraceLevel, format, args)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.logf(slog.DebugLevel, format, args)
}

func (l *Logger) Debugln(args ...any) {
	l.log(slog.DebugLevel, args)
}

func (l *Logger) Verbosef(format string, args ...any) {
	l.logf(VerboseLevel, format, args)
}

func (l *Logger) Printf(format string, args ...any) {
	l.logf(slog.InfoLevel, format, args)
}

func (l *Logger) Println(args ...any) {
	l.log(slog.InfoLevel, args)
}

func (l *Logger) Infof(format string, args ...any) {
	l.logf(slog.InfoLevel, format, args)
}

func (l *Logger) Infoln(args ...any) {
	l.log(slog.InfoLevel, args)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.logf(slog.WarnLevel, format, args)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.logf(slog.ErrorLevel, format, args)
}

func (l *Logger) Errorln(args ...any) {
	l.log(slog.ErrorLevel, args)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.logf(slog.FatalLevel, format, args)
}

func (l *Logger) logf(
	level slog.Level, format string, args []any,
) {

	if l.Enabled(level) {
		format = strings.TrimSuffix(format, "\n")
		l.slogger.Logf(level, fmt.Sprintf("[%s] %s", l.name, format), args...)
	}
}

func (l *Logger) log(
	level slog.Level, args []any,
) {

	if l.Enabled(level) {
		args = append([]any{fmt.Sprintf("[%s]", l.name)}, args...)
		l.slogger.Log(level, args...)
	}
}

// ParseLevel maps a configured level name to its slog level, info for
// unknown names.
func ParseLevel(
	name string,
) slog.Level {

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "panic":
		return slog.PanicLevel
	case "fatal":
		return slog.FatalLevel
	case "err", "error":
		return slog.ErrorLevel
	case "warn", "warning":
		return slog.WarnLevel
	case "notice":
		return slog.NoticeLevel
	case "verbose":
		return VerboseLevel
	case "debug":
		return slog.DebugLevel
	case "trace":
		return slog.TraceLevel
	default:
		return slog.InfoLevel
	}
}
