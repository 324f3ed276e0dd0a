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
	"github.com/go-errors/errors"
	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
	"github.com/gookit/slog/rotatefile"
	"github.com/inhies/go-bytesize"
	spiconfig "github.com/noctarius/change-ingestor/spi/config"
	"os"
	"sync"
	"time"
)

const (
	fiveMegabyte bytesize.ByteSize = 5242880
	bufferSize                     = 1024

	plainTemplate  = "[{{datetime}}] [{{level}}] {{message}} {{data}} {{extra}}\n"
	callerTemplate = "[{{datetime}}] [{{level}}] [{{caller}}] {{message}} {{data}} {{extra}}\n"
)

// file handlers are shared between loggers writing to the same path
var fileHandlers = struct {
	sync.Mutex
	handlers map[string]*handler.SyncCloseHandler
}{
	handlers: make(map[string]*handler.SyncCloseHandler),
}

func newConsoleHandler(
	logToStdErr bool,
) slog.Handler {

	consoleHandler := handler.NewConsoleHandler(slog.AllLevels)
	template := plainTemplate
	if WithCaller {
		template = callerTemplate
	}
	consoleHandler.TextFormatter().SetTemplate(template)
	if logToStdErr {
		consoleHandler.IOWriterHandler = *handler.NewIOWriterHandler(os.Stderr, slog.AllLevels)
	}
	return &syncConsoleHandler{ConsoleHandler: consoleHandler}
}

// syncConsoleHandler serializes writes of concurrent pipeline workers
type syncConsoleHandler struct {
	*handler.ConsoleHandler
	mutex sync.Mutex
}

func (h *syncConsoleHandler) Handle(
	record *slog.Record,
) error {

	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.ConsoleHandler.Handle(record)
}

// newFileHandler returns the (possibly cached) file handler for the
// configuration. The first return value is false if file output isn't
// enabled.
func newFileHandler(
	config spiconfig.LoggerFileConfig,
) (bool, *handler.SyncCloseHandler, error) {

	if config.Enabled == nil || !*config.Enabled {
		return false, nil, nil
	}
	if config.Path == "" {
		return false, nil, errors.Errorf("Logfile output enabled without a path")
	}

	fileHandlers.Lock()
	defer fileHandlers.Unlock()

	if h, ok := fileHandlers.handlers[config.Path]; ok {
		return true, h, nil
	}

	configurator := func(c *handler.Config) {
		c.Levels = slog.AllLevels
		c.Level = slog.TraceLevel
		c.Compress = config.Compress
	}

	fileHandler, err := createFileHandler(config, configurator)
	if err != nil {
		return false, nil, errors.Errorf("Failed to initialize logfile handler => %s", err.Error())
	}

	fileHandlers.handlers[config.Path] = fileHandler
	return true, fileHandler, nil
}

func createFileHandler(
	config spiconfig.LoggerFileConfig, configurator func(c *handler.Config),
) (*handler.SyncCloseHandler, error) {

	if config.Rotate == nil || !*config.Rotate {
		return handler.NewBuffFileHandler(config.Path, bufferSize, configurator)
	}

	if config.MaxDuration != nil {
		seconds := rotatefile.RotateTime((time.Second * time.Duration(*config.MaxDuration)).Seconds())
		return handler.NewTimeRotateFileHandler(config.Path, seconds, configurator)
	}

	maxSize := fiveMegabyte
	if config.MaxSize != nil {
		bs, err := bytesize.Parse(*config.MaxSize)
		if err != nil {
			return nil, errors.Errorf("Failed to parse max size property '%s' => %s", *config.MaxSize, err.Error())
		}
		maxSize = bs
	}
	return handler.NewSizeRotateFileHandler(config.Path, int(maxSize), configurator)
}
