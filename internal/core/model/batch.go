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

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// BatchItem is one entry of a bulk request. On the wire it is either a bare
// path string or an object with a name and optional metadata to merge.
type BatchItem struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// UnmarshalJSON accepts both `"path"` and `{"name": "path", "metadata": {...}}`.
// Non-string metadata values are kept as their compact JSON text, which is how
// tag lists are stored.
func (b *BatchItem) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &b.Name)
	}
	var raw struct {
		Name     string                     `json:"name"`
		Metadata map[string]json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("batch item must be a string or an object: %w", err)
	}
	b.Name = raw.Name
	b.Metadata = nil
	if len(raw.Metadata) == 0 {
		return nil
	}
	b.Metadata = make(map[string]string, len(raw.Metadata))
	for k, v := range raw.Metadata {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			b.Metadata[k] = s
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return fmt.Errorf("metadata %q: %w", k, err)
		}
		b.Metadata[k] = buf.String()
	}
	return nil
}

// BatchRequest is the body of a PATCH or DELETE against the gallery.
type BatchRequest struct {
	Files    []BatchItem `json:"files"`
	Password string      `json:"password"`
}

// BatchOutcome partitions the names of a batch's items. Every input item
// appears in exactly one of the lists.
type BatchOutcome struct {
	Completed []string `json:"completed"`
	Failed    []string `json:"failed"`
	Skipped   []string `json:"skipped,omitempty"`
}

// Total is the number of items accounted for.
func (o *BatchOutcome) Total() int {
	return len(o.Completed) + len(o.Failed) + len(o.Skipped)
}

// BatchResponse wraps the outcome for the HTTP surface.
type BatchResponse struct {
	Outcomes *BatchOutcome `json:"outcomes"`
}
