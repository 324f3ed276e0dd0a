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

package changes

import "time"

// Markers are the reserved message prefixes identifying context and
// heartbeat messages. They are fixed when the normalizer is created.
type Markers struct {
	Context   string
	Heartbeat string
}

const (
	DefaultContextMarker   = "_bemi"
	DefaultHeartbeatMarker = "_bemi_heartbeat"
)

func DefaultMarkers() Markers {
	return Markers{
		Context:   DefaultContextMarker,
		Heartbeat: DefaultHeartbeatMarker,
	}
}

// ChangeRecord is the normalized representation of one change event.
// Values and Context are never nil when built by the normalizer.
type ChangeRecord struct {
	PrimaryKey    Value
	Values        *Object
	Context       *Object
	Database      string
	Schema        string
	Table         string
	Operation     Operation
	CommittedAt   time.Time
	QueuedAt      time.Time
	TransactionId Value
	Position      int64
	CreatedAt     time.Time
}

// QualifiedTable returns database.schema.table.
func (cr ChangeRecord) QualifiedTable() string {
	return cr.Database + "." + cr.Schema + "." + cr.Table
}
