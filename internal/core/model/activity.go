// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import "time"

// Activity actions recorded in the ledger.
const (
	ActionDelete     = "delete"
	ActionPatch      = "patch"
	ActionTranscode  = "transcode"
	ActionRelocate   = "relocate"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

// ActivityEvent is one row of the gallery activity ledger.
type ActivityEvent struct {
	RunID   string    `json:"run_id" bigquery:"run_id"`
	Action  string    `json:"action" bigquery:"action"`
	Item    string    `json:"item" bigquery:"item"`
	Outcome string    `json:"outcome" bigquery:"outcome"`
	Detail  string    `json:"detail,omitempty" bigquery:"detail"`
	Time    time.Time `json:"time" bigquery:"time"`
}
