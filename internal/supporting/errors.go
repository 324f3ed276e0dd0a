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

package supporting

import (
	"fmt"
	"github.com/urfave/cli"
)

// Exit codes of the change-ingestor binary
const (
	ExitCodeLogging        = 1
	ExitCodeConfigOpen     = 3
	ExitCodeConfigRead     = 4
	ExitCodeConfigDecode   = 5
	ExitCodeNatsAddress    = 6
	ExitCodeStartupFailure = 7
	ExitCodeShutdown       = 10
)

// AdaptError converts the error into a cli exit error carrying the given
// exit code. Errors which already are exit errors keep their code.
func AdaptError(
	err error, exitCode int,
) *cli.ExitError {

	if err == nil {
		return nil
	}
	if e, ok := err.(*cli.ExitError); ok {
		return e
	}
	return cli.NewExitError(err.Error(), exitCode)
}

func AdaptErrorWithMessage(
	err error, msg string, exitCode int,
) *cli.ExitError {

	if err == nil {
		return nil
	}
	if e, ok := err.(*cli.ExitError); ok {
		return e
	}
	return cli.NewExitError(fmt.Sprintf("%s => err: %s", msg, err.Error()), exitCode)
}
