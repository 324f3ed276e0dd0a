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

package sink

import (
	"fmt"
	"github.com/noctarius/change-ingestor/spi/changes"
	"github.com/noctarius/change-ingestor/spi/config"
)

const defaultTopicPrefix = "changes."

// TopicPrefix reads the configured topic prefix, "changes." by default.
func TopicPrefix(
	c *config.Config,
) string {

	return config.GetOrDefault(c, config.PropertySinkTopicPrefix, defaultTopicPrefix)
}

// TopicName generates the destination name of a change record,
// <prefix><database>.<schema>.<table>.
func TopicName(
	prefix string, record changes.ChangeRecord,
) string {

	return fmt.Sprintf("%s%s.%s.%s", prefix, record.Database, record.Schema, record.Table)
}
