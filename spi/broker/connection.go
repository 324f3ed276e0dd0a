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
	"github.com/go-errors/errors"
	"github.com/nats-io/nats.go"
	"github.com/noctarius/change-ingestor/spi/config"
	"time"
)

const defaultNatsAddress = "nats://localhost:4222"

// ConnectionOptions resolves the NATS authorization options from the
// configuration.
func ConnectionOptions(
	c *config.Config,
) ([]nats.Option, error) {

	authorization := config.GetOrDefault(c, config.PropertyNatsAuthorization, config.UserInfo)
	switch authorization {
	case config.UserInfo:
		username := config.GetOrDefault(c, config.PropertyNatsUserinfoUsername, "")
		password := config.GetOrDefault(c, config.PropertyNatsUserinfoPassword, "")
		if username == "" {
			return []nats.Option{}, nil
		}
		return []nats.Option{nats.UserInfo(username, password)}, nil
	case config.Credentials:
		certificate := config.GetOrDefault(c, config.PropertyNatsCredentialsCertificate, "")
		seeds := config.GetOrDefault(c, config.PropertyNatsCredentialsSeeds, []string{})
		return []nats.Option{nats.UserCredentials(certificate, seeds...)}, nil
	case config.Jwt:
		jwt := config.GetOrDefault(c, config.PropertyNatsJwt, "")
		seed := config.GetOrDefault(c, config.PropertyNatsJwtSeed, "")
		return []nats.Option{nats.UserJWTAndSeed(jwt, seed)}, nil
	}
	return nil, errors.Errorf("NATS AuthorizationType '%s' doesn't exist", authorization)
}

// Connect opens a reconnecting NATS connection using the configured
// address and authorization.
func Connect(
	c *config.Config, name string,
) (*nats.Conn, error) {

	address := config.GetOrDefault(c, config.PropertyNatsAddress, defaultNatsAddress)

	options, err := ConnectionOptions(c)
	if err != nil {
		return nil, err
	}

	options = append(
		options,
		nats.Name(name),
		nats.RetryOnFailedConnect(true),
		nats.ReconnectWait(time.Second*10),
		nats.ReconnectBufSize(1024*1024),
		nats.MaxReconnects(-1),
	)

	conn, err := nats.Connect(address, options...)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	return conn, nil
}
