// Copyright 2026 Archivox Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "fmt"

// ValidateMessageRecord validates a MessageRecord according to domain rules.
//
// Validation rules:
//   - Text must not be empty
//   - SourceID must not be empty
//   - Metadata values must carry a known kind
//
// NOT validated (populated later in the pipeline):
//   - Vector (empty until the record is embedded)
//   - Seq, InsertedAt, UpdatedAt (populated by the store)
func ValidateMessageRecord(record *MessageRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyText)
	}

	if record.SourceID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptySourceID)
	}

	for key, value := range record.Metadata {
		if err := ValidateMetaValue(value); err != nil {
			return fmt.Errorf("%w: key %q: %w", ErrInvalidRecord, key, err)
		}
	}

	return nil
}

// ValidateMetaValue validates that a metadata value carries a known kind.
func ValidateMetaValue(value MetaValue) error {
	switch value.Kind {
	case MetaKindString, MetaKindNumber, MetaKindTime:
		return nil
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidMetaValue, value.Kind)
	}
}
