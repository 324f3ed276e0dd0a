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

package main

import (
	"fmt"
	"github.com/noctarius/change-ingestor/internal"
	"github.com/noctarius/change-ingestor/internal/supporting"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/internal/version"
	"github.com/noctarius/change-ingestor/internal/waiting"
	spiconfig "github.com/noctarius/change-ingestor/spi/config"
	"github.com/urfave/cli"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const configEnvVariable = "CHANGE_INGESTOR_CONFIG"

var (
	configurationFile string
	verbose           bool
	withCaller        bool
	logToStdErr       bool
	versionOnly       bool
)

func main() {
	app := &cli.App{
		Name:  version.BinName,
		Usage: "Normalizes CDC change envelopes from NATS JetStream and persists them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config,c",
				Value:       "",
				Usage:       "Load configuration from `FILE`",
				Destination: &configurationFile,
			},
			&cli.BoolFlag{
				Name:        "verbose",
				Usage:       "Show verbose output",
				Destination: &verbose,
			},
			&cli.BoolFlag{
				Name:        "caller",
				Usage:       "Collect caller information for log messages",
				Destination: &withCaller,
			},
			&cli.BoolFlag{
				Name:        "log-to-stderr",
				Usage:       "Redirects logging output to stderr, necessary when using StdOut as the sink",
				Destination: &logToStdErr,
			},
			&cli.BoolFlag{
				Name:        "version",
				Usage:       "Prints the version and exits",
				Destination: &versionOnly,
			},
		},
		Action: start,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func start(*cli.Context) error {
	fmt.Fprintln(os.Stderr, version.Full())

	if versionOnly {
		return nil
	}

	logging.WithCaller = withCaller
	logging.WithVerbose = verbose

	config, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logging.InitializeLogging(config, logToStdErr); err != nil {
		return supporting.AdaptErrorWithMessage(err, "Logging couldn't be initialized", supporting.ExitCodeLogging)
	}

	if spiconfig.GetOrDefault(config, spiconfig.PropertyNatsAddress, "") == "" {
		return cli.NewExitError("NATS address required", supporting.ExitCodeNatsAddress)
	}

	ingestor, err := internal.NewIngestor(config)
	if err != nil {
		return supporting.AdaptError(err, supporting.ExitCodeStartupFailure)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := waiting.NewWaiter()
	var stopErr error
	go func() {
		<-signals
		stopErr = ingestor.Stop()
		done.Signal()
	}()

	if err := ingestor.Start(); err != nil {
		return supporting.AdaptError(err, supporting.ExitCodeStartupFailure)
	}

	done.Await()
	if stopErr != nil {
		return supporting.AdaptErrorWithMessage(stopErr, "Hard error when stopping the ingestor", supporting.ExitCodeShutdown)
	}
	return nil
}

func loadConfig() (*spiconfig.Config, error) {
	config := &spiconfig.Config{}

	// No configuration file set? Try env variable!
	if configurationFile == "" {
		if cf, present := os.LookupEnv(configEnvVariable); present {
			fmt.Fprintf(os.Stderr, "Using configuration file from environment variable\n")
			configurationFile = cf
		}
	}

	if configurationFile == "" {
		return config, nil
	}

	fmt.Fprintf(os.Stderr, "Loading configuration file: %s\n", configurationFile)
	f, err := os.Open(configurationFile)
	if err != nil {
		return nil, supporting.AdaptErrorWithMessage(err, "Configuration file couldn't be opened", supporting.ExitCodeConfigOpen)
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, supporting.AdaptErrorWithMessage(err, "Configuration file couldn't be read", supporting.ExitCodeConfigRead)
	}

	if err := spiconfig.Unmarshall(b, config, spiconfig.IsTomlFile(configurationFile)); err != nil {
		return nil, supporting.AdaptErrorWithMessage(err, "Configuration file couldn't be decoded", supporting.ExitCodeConfigDecode)
	}
	return config, nil
}
