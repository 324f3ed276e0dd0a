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

package stitching

import (
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/samber/lo"
	"sort"
)

// Stitcher correlates the context messages of a batch with the data
// changes written in the same transaction.
type Stitcher struct {
	logger *logging.Logger
}

func NewStitcher() (*Stitcher, error) {
	logger, err := logging.NewLogger("Stitcher")
	if err != nil {
		return nil, err
	}
	return &Stitcher{
		logger: logger,
	}, nil
}

// Stitch returns the data changes of the batch ordered by stream
// sequence. A data change sharing its transaction id with a context
// message gets that message's context assigned. If multiple context
// messages share a transaction id, the one with the highest stream
// sequence wins. Custom messages are not part of the result.
// Correlation is limited to the given batch, a context message fetched
// in another batch than its data changes isn't applied to them.
func (s *Stitcher) Stitch(
	messages []*changes.ChangeMessage,
) []*changes.ChangeMessage {

	contexts := make(map[string]*changes.ChangeMessage)
	for _, message := range messages {
		if !message.IsContextMessage() {
			continue
		}
		key, ok := transactionKey(message)
		if !ok {
			s.logger.Debugf("Context message without transaction id, ignoring: %s", message)
			continue
		}
		if current, present := contexts[key]; !present || current.StreamSequence() < message.StreamSequence() {
			contexts[key] = message
		}
	}

	dataChanges := lo.Filter(messages, func(message *changes.ChangeMessage, _ int) bool {
		if message.IsMessage() {
			s.logger.Verbosef("Dropping %s message: %s", message.Kind(), message)
			return false
		}
		return true
	})

	for _, message := range dataChanges {
		key, ok := transactionKey(message)
		if !ok {
			continue
		}
		if contextMessage, present := contexts[key]; present {
			message.SetContext(contextMessage.Context())
		}
	}

	sort.SliceStable(dataChanges, func(i, j int) bool {
		return dataChanges[i].StreamSequence() < dataChanges[j].StreamSequence()
	})
	return dataChanges
}

func transactionKey(
	message *changes.ChangeMessage,
) (string, bool) {

	transactionId := message.TransactionId()
	if transactionId.IsNull() {
		return "", false
	}
	return transactionId.Kind().String() + ":" + transactionId.Text(), true
}
