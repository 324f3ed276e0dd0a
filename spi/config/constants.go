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

package config

const (
	PropertyNatsAddress                = "nats.address"
	PropertyNatsAuthorization          = "nats.authorization"
	PropertyNatsUserinfoUsername       = "nats.userinfo.username"
	PropertyNatsUserinfoPassword       = "nats.userinfo.password"
	PropertyNatsCredentialsCertificate = "nats.credentials.certificate"
	PropertyNatsCredentialsSeeds       = "nats.credentials.seeds"
	PropertyNatsJwt                    = "nats.jwt.jwt"
	PropertyNatsJwtSeed                = "nats.jwt.seed"
	PropertyNatsStream                 = "nats.stream"
	PropertyNatsSubject                = "nats.subject"
	PropertyNatsConsumerName           = "nats.consumer.name"
	PropertyNatsFetchBatchSize         = "nats.consumer.fetch.batchsize"
	PropertyNatsFetchMaxWait           = "nats.consumer.fetch.maxwait"

	PropertyMarkersContext   = "markers.context"
	PropertyMarkersHeartbeat = "markers.heartbeat"

	PropertySink                = "sink.type"
	PropertySinkTopicPrefix     = "sink.topic.prefix"
	PropertySinkRetriesMax      = "sink.retries.maxattempts"
	PropertyEncodingReflection  = "sink.encoding.customreflection"
	PropertyPostgresConnection  = "sink.postgres.connection"
	PropertyPostgresPassword    = "sink.postgres.password"
	PropertyPostgresTable       = "sink.postgres.table"
	PropertyPostgresCreateTable = "sink.postgres.createtable"

	PropertyStatsEnabled        = "stats.enabled"
	PropertyStatsAddress        = "stats.address"
	PropertyRuntimeStatsEnabled = "stats.runtime.enabled"

	PropertyKafkaBrokers       = "sink.kafka.brokers"
	PropertyKafkaIdempotent    = "sink.kafka.idempotent"
	PropertyKafkaSaslEnabled   = "sink.kafka.sasl.enabled"
	PropertyKafkaSaslUser      = "sink.kafka.sasl.user"
	PropertyKafkaSaslPassword  = "sink.kafka.sasl.password"
	PropertyKafkaSaslMechanism = "sink.kafka.sasl.mechanism"
	PropertyKafkaTlsEnabled    = "sink.kafka.tls.enabled"
	PropertyKafkaTlsSkipVerify = "sink.kafka.tls.skipverify"
	PropertyKafkaTlsClientAuth = "sink.kafka.tls.clientauth"

	PropertyRedisNetwork           = "sink.redis.network"
	PropertyRedisAddress           = "sink.redis.address"
	PropertyRedisPassword          = "sink.redis.password"
	PropertyRedisDatabase          = "sink.redis.database"
	PropertyRedisPoolsize          = "sink.redis.poolsize"
	PropertyRedisRetriesMax        = "sink.redis.retries.maxattempts"
	PropertyRedisRetriesBackoffMin = "sink.redis.retries.backoff.min"
	PropertyRedisRetriesBackoffMax = "sink.redis.retries.backoff.max"
	PropertyRedisTimeoutDial       = "sink.redis.timeouts.dial"
	PropertyRedisTimeoutRead       = "sink.redis.timeouts.read"
	PropertyRedisTimeoutWrite      = "sink.redis.timeouts.write"
	PropertyRedisTimeoutPool       = "sink.redis.timeouts.pool"
	PropertyRedisTimeoutIdle       = "sink.redis.timeouts.idle"
	PropertyRedisTlsEnabled        = "sink.redis.tls.enabled"
	PropertyRedisTlsSkipVerify     = "sink.redis.tls.skipverify"
	PropertyRedisTlsClientAuth     = "sink.redis.tls.clientauth"

	PropertySqsQueueUrl           = "sink.sqs.queue.url"
	PropertySqsAwsRegion          = "sink.sqs.aws.region"
	PropertySqsAwsEndpoint        = "sink.sqs.aws.endpoint"
	PropertySqsAwsAccessKeyId     = "sink.sqs.aws.accesskeyid"
	PropertySqsAwsSecretAccessKey = "sink.sqs.aws.secretaccesskey"
	PropertySqsAwsSessionToken    = "sink.sqs.aws.sessiontoken"
)
