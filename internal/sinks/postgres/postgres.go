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

package postgres

import (
	"context"
	"fmt"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-errors/errors"
	"github.com/hashicorp/go-uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/noctarius/change-ingestor/internal/supporting/logging"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
	"github.com/noctarius/change-ingestor/spi/encoding"
	"github.com/noctarius/change-ingestor/spi/sink"
	"strings"
	"time"
)

const defaultTable = "changes"

const createTableTemplate = `CREATE TABLE IF NOT EXISTS %[1]s (
	"id" UUID PRIMARY KEY,
	"primary_key" TEXT,
	"values" JSONB NOT NULL,
	"context" JSONB NOT NULL,
	"database" TEXT NOT NULL,
	"schema" TEXT NOT NULL,
	"table" TEXT NOT NULL,
	"operation" TEXT NOT NULL,
	"committed_at" TIMESTAMPTZ,
	"queued_at" TIMESTAMPTZ,
	"transaction_id" BIGINT,
	"position" BIGINT NOT NULL,
	"created_at" TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS %[2]s ON %[1]s ("position", "table", "schema", "database", "operation");`

const insertTemplate = `INSERT INTO %s (
	"id", "primary_key", "values", "context", "database", "schema", "table", "operation",
	"committed_at", "queued_at", "transaction_id", "position", "created_at"
) VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT DO NOTHING`

func init() {
	sink.RegisterSink(config.Postgres, newPostgresSink)
}

type postgresSink struct {
	connection  string
	password    string
	table       pgx.Identifier
	createTable bool
	insert      string
	pool        *pgxpool.Pool
	encoder     *encoding.JsonEncoder
	logger      *logging.Logger
}

func newPostgresSink(
	c *config.Config,
) (sink.Sink, error) {

	connection := config.GetOrDefault(c, config.PropertyPostgresConnection, "")
	if connection == "" {
		return nil, errors.Errorf("Postgres sink needs the connection string to be configured")
	}

	logger, err := logging.NewLogger("PostgresSink")
	if err != nil {
		return nil, err
	}

	table := tableIdentifier(config.GetOrDefault(c, config.PropertyPostgresTable, defaultTable))
	return &postgresSink{
		connection:  connection,
		password:    config.GetOrDefault(c, config.PropertyPostgresPassword, ""),
		table:       table,
		createTable: config.GetOrDefault(c, config.PropertyPostgresCreateTable, true),
		insert:      fmt.Sprintf(insertTemplate, table.Sanitize()),
		encoder:     encoding.NewJsonEncoderWithConfig(c),
		logger:      logger,
	}, nil
}

func (p *postgresSink) Start() error {
	poolConfig, err := pgxpool.ParseConfig(p.connection)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	if p.password != "" {
		poolConfig.ConnConfig.Password = p.password
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return errors.Wrap(err, 0)
	}

	if p.createTable {
		if _, err := pool.Exec(ctx, createTableStatement(p.table)); err != nil {
			pool.Close()
			return errors.Wrap(err, 0)
		}
	}

	p.logger.Infof("Connected to %s:%d, writing to %s", poolConfig.ConnConfig.Host, poolConfig.ConnConfig.Port, p.table.Sanitize())
	p.pool = pool
	return nil
}

func (p *postgresSink) Stop() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// Persist inserts all changes in a single transaction. Changes already
// present from an earlier delivery are ignored.
func (p *postgresSink) Persist(
	ctx context.Context, messages []*changes.ChangeMessage,
) error {

	if p.pool == nil {
		return errors.Errorf("Postgres sink isn't started")
	}

	batch := &pgx.Batch{}
	for _, message := range messages {
		arguments, err := p.insertArguments(message.Record())
		if err != nil {
			return backoff.Permanent(err)
		}
		batch.Queue(p.insert, arguments...)
	}

	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		results := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return err
			}
		}
		return results.Close()
	})
	if err != nil {
		return classifyError(err)
	}
	return nil
}

func (p *postgresSink) insertArguments(
	record changes.ChangeRecord,
) ([]any, error) {

	id, err := uuid.GenerateUUID()
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	values, err := p.encoder.Marshal(record.Values)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}
	contextData, err := p.encoder.Marshal(record.Context)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	return []any{
		id,
		nullableText(record.PrimaryKey),
		string(values),
		string(contextData),
		record.Database,
		record.Schema,
		record.Table,
		record.Operation.String(),
		nullableTime(record.CommittedAt),
		nullableTime(record.QueuedAt),
		nullableInt64(record.TransactionId),
		record.Position,
		record.CreatedAt,
	}, nil
}

// classifyError marks failures which won't resolve by retrying as
// permanent.
func classifyError(
	err error,
) error {

	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		if pgerrcode.IsIntegrityConstraintViolation(pgError.Code) ||
			pgerrcode.IsDataException(pgError.Code) ||
			pgError.Code == pgerrcode.UndefinedTable ||
			pgError.Code == pgerrcode.UndefinedColumn {

			return backoff.Permanent(errors.Wrap(err, 0))
		}
	}
	return errors.Wrap(err, 0)
}

func tableIdentifier(
	table string,
) pgx.Identifier {

	return strings.Split(table, ".")
}

func createTableStatement(
	table pgx.Identifier,
) string {

	indexName := pgx.Identifier{strings.Join(table, "_") + "_position_idx"}
	return fmt.Sprintf(createTableTemplate, table.Sanitize(), indexName.Sanitize())
}

func nullableText(
	value changes.Value,
) *string {

	if value.IsNull() {
		return nil
	}
	text := value.Text()
	return &text
}

func nullableInt64(
	value changes.Value,
) *int64 {

	if value.Kind() != changes.KindNumber {
		return nil
	}
	i, err := value.Int64()
	if err != nil {
		return nil
	}
	return &i
}

func nullableTime(
	t time.Time,
) *time.Time {

	if t.IsZero() {
		return nil
	}
	return &t
}
