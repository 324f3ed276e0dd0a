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

import (
	"crypto/tls"
	"github.com/IBM/sarama"
	"github.com/gookit/goutil/strutil"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

type SinkType string

const (
	Stdout   SinkType = "stdout"
	Postgres SinkType = "postgres"
	NATS     SinkType = "nats"
	Kafka    SinkType = "kafka"
	Redis    SinkType = "redis"
	AwsSQS   SinkType = "sqs"
)

type NatsAuthorizationType string

const (
	UserInfo    NatsAuthorizationType = "userinfo"
	Credentials NatsAuthorizationType = "credentials"
	Jwt         NatsAuthorizationType = "jwt"
)

type NatsUserInfoConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
}

type NatsCredentialsConfig struct {
	Certificate string   `toml:"certificate"`
	Seeds       []string `toml:"seeds"`
}

type NatsJWTConfig struct {
	JWT  string `toml:"jwt"`
	Seed string `toml:"seed"`
}

type NatsFetchConfig struct {
	BatchSize int           `toml:"batchsize"`
	MaxWait   time.Duration `toml:"maxwait"`
}

type NatsConsumerConfig struct {
	Name  string          `toml:"name"`
	Fetch NatsFetchConfig `toml:"fetch"`
}

type NatsConfig struct {
	Address       string                `toml:"address"`
	Authorization NatsAuthorizationType `toml:"authorization"`
	UserInfo      NatsUserInfoConfig    `toml:"userinfo"`
	Credentials   NatsCredentialsConfig `toml:"credentials"`
	JWT           NatsJWTConfig         `toml:"jwt"`
	Stream        string                `toml:"stream"`
	Subject       string                `toml:"subject"`
	Consumer      NatsConsumerConfig    `toml:"consumer"`
}

type MarkersConfig struct {
	Context   string `toml:"context"`
	Heartbeat string `toml:"heartbeat"`
}

type SinkConfig struct {
	Type     SinkType        `toml:"type"`
	Topic    TopicConfig     `toml:"topic"`
	Retries  SinkRetryConfig `toml:"retries"`
	Encoding EncodingConfig  `toml:"encoding"`
	Postgres PostgresConfig  `toml:"postgres"`
	Kafka    KafkaConfig     `toml:"kafka"`
	Redis    RedisConfig     `toml:"redis"`
	AwsSqs   AwsSqsConfig    `toml:"sqs"`
}

type TopicConfig struct {
	Prefix string `toml:"prefix"`
}

type EncodingConfig struct {
	CustomReflection *bool `toml:"customreflection"`
}

type SinkRetryConfig struct {
	MaxAttempts int `toml:"maxattempts"`
}

type PostgresConfig struct {
	Connection  string `toml:"connection"`
	Password    string `toml:"password"`
	Table       string `toml:"table"`
	CreateTable *bool  `toml:"createtable"`
}

type KafkaSaslConfig struct {
	Enabled   bool                 `toml:"enabled"`
	User      string               `toml:"user"`
	Password  string               `toml:"password"`
	Mechanism sarama.SASLMechanism `toml:"mechanism"`
}

type KafkaConfig struct {
	Brokers    []string        `toml:"brokers"`
	Idempotent bool            `toml:"idempotent"`
	Sasl       KafkaSaslConfig `toml:"sasl"`
	TLS        TLSConfig       `toml:"tls"`
}

type RedisConfig struct {
	Network  string             `toml:"network"`
	Address  string             `toml:"address"`
	Password string             `toml:"password"`
	Database int                `toml:"database"`
	Retries  RedisRetryConfig   `toml:"retries"`
	Timeouts RedisTimeoutConfig `toml:"timeouts"`
	PoolSize int                `toml:"poolsize"`
	TLS      TLSConfig          `toml:"tls"`
}

type RedisRetryConfig struct {
	MaxAttempts int                     `toml:"maxattempts"`
	Backoff     RedisRetryBackoffConfig `toml:"backoff"`
}

type RedisRetryBackoffConfig struct {
	Min int `toml:"min"`
	Max int `toml:"max"`
}

type RedisTimeoutConfig struct {
	Dial  int `toml:"dial"`
	Read  int `toml:"read"`
	Write int `toml:"write"`
	Pool  int `toml:"pool"`
	Idle  int `toml:"idle"`
}

type AwsSqsConfig struct {
	Queue AwsSqsQueueConfig `toml:"queue"`
	Aws   AwsConnectConfig  `toml:"aws"`
}

type AwsSqsQueueConfig struct {
	Url string `toml:"url"`
}

type AwsConnectConfig struct {
	Region          string `toml:"region"`
	Endpoint        string `toml:"endpoint"`
	AccessKeyId     string `toml:"accesskeyid"`
	SecretAccessKey string `toml:"secretaccesskey"`
	SessionToken    string `toml:"sessiontoken"`
}

type TLSConfig struct {
	Enabled    bool               `toml:"enabled"`
	SkipVerify bool               `toml:"skipverify"`
	ClientAuth tls.ClientAuthType `toml:"clientauth"`
}

type FilterConfig struct {
	Condition    string `toml:"condition"`
	DefaultValue *bool  `toml:"default"`
}

type StatsConfig struct {
	Enabled *bool              `toml:"enabled"`
	Address string             `toml:"address"`
	Runtime RuntimeStatsConfig `toml:"runtime"`
}

type RuntimeStatsConfig struct {
	Enabled *bool `toml:"enabled"`
}

type Config struct {
	Nats    NatsConfig              `toml:"nats"`
	Markers MarkersConfig           `toml:"markers"`
	Sink    SinkConfig              `toml:"sink"`
	Filters map[string]FilterConfig `toml:"filters"`
	Stats   StatsConfig             `toml:"stats"`
	Logging LoggerConfig            `toml:"logging"`
}

type LoggerConfig struct {
	Level   string                     `toml:"level"`
	Outputs LoggerOutputConfig         `toml:"output"`
	Loggers map[string]SubLoggerConfig `toml:"loggers"`
}

type LoggerOutputConfig struct {
	Console LoggerConsoleConfig `toml:"console"`
	File    LoggerFileConfig    `toml:"file"`
}

type SubLoggerConfig struct {
	Level   *string            `toml:"level"`
	Outputs LoggerOutputConfig `toml:"output"`
}

type LoggerConsoleConfig struct {
	Enabled *bool `toml:"enabled"`
}

type LoggerFileConfig struct {
	Enabled     *bool   `toml:"enabled"`
	Path        string  `toml:"path"`
	Rotate      *bool   `toml:"rotate"`
	MaxSize     *string `toml:"maxsize"`
	MaxDuration *int    `toml:"maxduration"`
	Compress    bool    `toml:"compress"`
}

// GetOrDefault resolves the canonical (dot separated) property, first
// from the environment, then from the configuration. The default value
// is returned if neither is set or the value is the zero value.
func GetOrDefault[V any](
	config *Config, canonicalProperty string, defaultValue V,
) V {

	if env, found := findEnvProperty(canonicalProperty, defaultValue); found {
		return env
	}

	properties := strings.Split(canonicalProperty, ".")

	element := reflect.ValueOf(*config)
	for _, property := range properties {
		if e, ok := findProperty(element, property); ok {
			element = e
		} else {
			return defaultValue
		}
	}

	if !element.IsZero() &&
		!(element.Kind() == reflect.Ptr && element.IsNil()) {

		if element.Kind() == reflect.Ptr {
			element = element.Elem()
		}

		t := reflect.TypeOf(defaultValue)
		if !element.Type().ConvertibleTo(t) {
			return defaultValue
		}
		return element.Convert(t).Interface().(V)
	}
	return defaultValue
}

func envVariableName(
	canonicalProperty string,
) string {

	envVarName := strings.ToUpper(canonicalProperty)
	envVarName = strings.ReplaceAll(envVarName, "_", "__")
	return strings.ReplaceAll(envVarName, ".", "_")
}

func findEnvProperty[V any](
	canonicalProperty string, defaultValue V,
) (V, bool) {

	val, ok := os.LookupEnv(envVariableName(canonicalProperty))
	if !ok || val == "" {
		return defaultValue, false
	}

	t := reflect.TypeOf(defaultValue)
	if t == nil {
		return defaultValue, false
	}

	converted, ok := convertEnvValue(val, t)
	if !ok {
		return defaultValue, false
	}
	return converted.Interface().(V), true
}

func convertEnvValue(
	val string, t reflect.Type,
) (reflect.Value, bool) {

	if t == reflect.TypeOf(time.Duration(0)) {
		if d, err := time.ParseDuration(val); err == nil {
			return reflect.ValueOf(d), true
		}
	}

	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(val).Convert(t), true
	case reflect.Bool:
		b, err := strutil.ToBool(val)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(b).Convert(t), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(i).Convert(t), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return reflect.Value{}, false
		}
		return reflect.ValueOf(u).Convert(t), true
	case reflect.Slice:
		if t.Elem().Kind() != reflect.String {
			return reflect.Value{}, false
		}
		items := strings.Split(val, ",")
		slice := reflect.MakeSlice(t, 0, len(items))
		for _, item := range items {
			slice = reflect.Append(slice, reflect.ValueOf(strings.TrimSpace(item)).Convert(t.Elem()))
		}
		return slice, true
	}
	return reflect.Value{}, false
}

func findProperty(
	element reflect.Value, property string,
) (reflect.Value, bool) {

	if element.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}

	t := element.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" && !f.Anonymous {
			continue
		}

		if f.Tag.Get("toml") == property {
			return element.Field(i), true
		}
	}
	return reflect.Value{}, false
}
