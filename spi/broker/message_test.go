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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func Test_NewMessage(t *testing.T) {
	message := NewMessage([]byte(`{}`), "changes.public.users", 7)
	assert.Equal(t, []byte(`{}`), message.Data())
	assert.Equal(t, "changes.public.users", message.Subject())
	assert.Equal(t, uint64(7), message.StreamSequence())
}

func Test_FromNatsMsg(t *testing.T) {
	msg := &nats.Msg{
		Subject: "changes.public.users",
		Reply:   "$JS.ACK.CHANGES.ingestor.1.42.17.1700000000000000000.0",
		Data:    []byte(`{"op":"c"}`),
		Sub:     &nats.Subscription{},
	}

	message, err := FromNatsMsg(msg)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), message.StreamSequence())
	assert.Equal(t, "changes.public.users", message.Subject())
	assert.Equal(t, []byte(`{"op":"c"}`), message.Data())
	assert.Same(t, msg, message.Msg())
}

func Test_FromNatsMsg_Without_Metadata(t *testing.T) {
	msg := &nats.Msg{
		Subject: "changes.public.users",
		Data:    []byte(`{"op":"c"}`),
		Sub:     &nats.Subscription{},
	}

	_, err := FromNatsMsg(msg)
	assert.Error(t, err)
}
