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

package broker

import (
	"github.com/nats-io/nats.go"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func applyOptions(
	t *testing.T, options []nats.Option,
) nats.Options {

	natsOptions := nats.GetDefaultOptions()
	for _, option := range options {
		require.NoError(t, option(&natsOptions))
	}
	return natsOptions
}

func Test_Connection_Options_UserInfo(t *testing.T) {
	options, err := ConnectionOptions(&config.Config{
		Nats: config.NatsConfig{
			Authorization: config.UserInfo,
			UserInfo:      config.NatsUserInfoConfig{Username: "ingestor", Password: "secret"},
		},
	})
	require.NoError(t, err)

	natsOptions := applyOptions(t, options)
	assert.Equal(t, "ingestor", natsOptions.User)
	assert.Equal(t, "secret", natsOptions.Password)
}

func Test_Connection_Options_Anonymous(t *testing.T) {
	options, err := ConnectionOptions(&config.Config{})
	require.NoError(t, err)
	assert.Empty(t, options)
}

func Test_Connection_Options_Jwt(t *testing.T) {
	options, err := ConnectionOptions(&config.Config{
		Nats: config.NatsConfig{
			Authorization: config.Jwt,
			JWT:           config.NatsJWTConfig{JWT: "token", Seed: "seed"},
		},
	})
	require.NoError(t, err)

	natsOptions := applyOptions(t, options)
	assert.NotNil(t, natsOptions.UserJWT)
	assert.NotNil(t, natsOptions.SignatureCB)
}

func Test_Connection_Options_Unknown_Authorization(t *testing.T) {
	_, err := ConnectionOptions(&config.Config{
		Nats: config.NatsConfig{Authorization: "kerberos"},
	})
	assert.Error(t, err)
}
