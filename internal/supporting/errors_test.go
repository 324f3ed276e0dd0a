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
	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/urfave/cli"
	"testing"
)

func Test_AdaptError_Nil(t *testing.T) {
	assert.Nil(t, AdaptError(nil, ExitCodeConfigOpen))
	assert.Nil(t, AdaptErrorWithMessage(nil, "ignored", ExitCodeConfigOpen))
}

func Test_AdaptError_Sets_Exit_Code(t *testing.T) {
	exitError := AdaptError(errors.New("boom"), ExitCodeConfigDecode)
	assert.Equal(t, ExitCodeConfigDecode, exitError.ExitCode())
	assert.Equal(t, "boom", exitError.Error())
}

func Test_AdaptError_Keeps_Existing_Exit_Code(t *testing.T) {
	original := cli.NewExitError("kept", ExitCodeNatsAddress)
	exitError := AdaptError(original, ExitCodeShutdown)
	assert.Same(t, original, exitError)
	assert.Equal(t, ExitCodeNatsAddress, exitError.ExitCode())
}

func Test_AdaptErrorWithMessage(t *testing.T) {
	exitError := AdaptErrorWithMessage(errors.New("no such file"), "Couldn't open config file", ExitCodeConfigOpen)
	assert.Equal(t, "Couldn't open config file => err: no such file", exitError.Error())
	assert.Equal(t, ExitCodeConfigOpen, exitError.ExitCode())
}

func Test_RandomTextString(t *testing.T) {
	value := RandomTextString(12)
	assert.Len(t, value, 12)
	assert.Regexp(t, "^[a-z]+$", value)
}
