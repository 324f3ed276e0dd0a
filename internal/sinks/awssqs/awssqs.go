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

package awssqs

import (
	"context"
	"crypto/sha256"
	"fmt"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	"github.com/go-errors/errors"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/encoding"
	"github.com/noctarius/change-ingestor/spi/sink"
	"github.com/samber/lo"
	"strconv"
	"strings"
)

// maxBatchEntries is the SQS limit of entries per SendMessageBatch call.
const maxBatchEntries = 10

func init() {
	sink.RegisterSink(config.AwsSQS, newAwsSqsSink)
}

type awsSqsSink struct {
	queueUrl *string
	awsSqs   sqsiface.SQSAPI
	encoder  *encoding.JsonEncoder
}

func newAwsSqsSink(
	c *config.Config,
) (sink.Sink, error) {

	queueUrl := config.GetOrDefault(c, config.PropertySqsQueueUrl, "")
	if queueUrl == "" {
		return nil, errors.Errorf("AWS SQS sink needs the queue url to be configured")
	}

	awsRegion := config.GetOrDefault(c, config.PropertySqsAwsRegion, "")
	endpoint := config.GetOrDefault(c, config.PropertySqsAwsEndpoint, "")
	accessKeyId := config.GetOrDefault(c, config.PropertySqsAwsAccessKeyId, "")
	secretAccessKey := config.GetOrDefault(c, config.PropertySqsAwsSecretAccessKey, "")
	sessionToken := config.GetOrDefault(c, config.PropertySqsAwsSessionToken, "")

	awsConfig := aws.NewConfig().WithEndpoint(endpoint)
	if accessKeyId != "" && secretAccessKey != "" {
		awsConfig = awsConfig.WithCredentials(
			credentials.NewStaticCredentials(accessKeyId, secretAccessKey, sessionToken),
		)
	}

	if awsRegion != "" {
		awsConfig = awsConfig.WithRegion(awsRegion)
	}

	awsSession, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return newAwsSqsSinkWithClient(c, queueUrl, sqs.New(awsSession)), nil
}

func newAwsSqsSinkWithClient(
	c *config.Config, queueUrl string, client sqsiface.SQSAPI,
) *awsSqsSink {

	return &awsSqsSink{
		queueUrl: aws.String(queueUrl),
		awsSqs:   client,
		encoder:  encoding.NewJsonEncoderWithConfig(c),
	}
}

func (a *awsSqsSink) Start() error {
	return nil
}

func (a *awsSqsSink) Stop() error {
	return nil
}

// Persist sends the changes in batches of at most ten FIFO messages.
// Changes of one table share a message group.
func (a *awsSqsSink) Persist(
	ctx context.Context, messages []*changes.ChangeMessage,
) error {

	for _, chunk := range lo.Chunk(messages, maxBatchEntries) {
		entries := make([]*sqs.SendMessageBatchRequestEntry, 0, len(chunk))
		for i, message := range chunk {
			_, document, err := a.encoder.EncodeChange(message)
			if err != nil {
				return err
			}

			record := message.Record()
			entries = append(entries, &sqs.SendMessageBatchRequestEntry{
				Id:                     aws.String(strconv.Itoa(i)),
				DelaySeconds:           aws.Int64(0),
				MessageBody:            aws.String(string(document)),
				MessageGroupId:         aws.String(record.QualifiedTable()),
				MessageDeduplicationId: aws.String(deduplicationId(record)),
			})
		}

		output, err := a.awsSqs.SendMessageBatchWithContext(ctx, &sqs.SendMessageBatchInput{
			Entries:  entries,
			QueueUrl: a.queueUrl,
		})
		if err != nil {
			return errors.Wrap(err, 0)
		}
		if len(output.Failed) > 0 {
			return batchFailure(output.Failed)
		}
	}
	return nil
}

// deduplicationId identifies a change by its position, transaction,
// table, operation and primary key, so redelivered changes collapse.
func deduplicationId(
	record changes.ChangeRecord,
) string {

	content := fmt.Sprintf(
		"%d-%s-%s-%s-%s", record.Position, record.TransactionId.Text(),
		record.QualifiedTable(), record.Operation, record.PrimaryKey.Text(),
	)

	hash := sha256.New()
	hash.Write([]byte(content))
	return fmt.Sprintf("%X", hash.Sum(nil))
}

func batchFailure(
	failed []*sqs.BatchResultErrorEntry,
) error {

	reasons := lo.Map(failed, func(entry *sqs.BatchResultErrorEntry, _ int) string {
		return fmt.Sprintf("%s: %s", aws.StringValue(entry.Code), aws.StringValue(entry.Message))
	})
	return errors.Errorf("AWS SQS rejected %d messages: %s", len(failed), strings.Join(reasons, ", "))
}
