package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateMessageRecord(t *testing.T) {
	now := time.Now().UTC()

	valid := func() *MessageRecord {
		return &MessageRecord{
			Id:       IDFromSource("general", "1700000000.000100"),
			SourceID: "general:1700000000.000100",
			Text:     "database is down",
			Metadata: Metadata{
				"author":    MetaString("alice"),
				"channel":   MetaString("general"),
				"timestamp": MetaTime(now),
			},
		}
	}

	t.Run("valid record", func(t *testing.T) {
		if err := ValidateMessageRecord(valid()); err != nil {
			t.Errorf("ValidateMessageRecord() = %v, want nil", err)
		}
	})

	t.Run("nil record", func(t *testing.T) {
		err := ValidateMessageRecord(nil)
		if !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("ValidateMessageRecord(nil) = %v, want ErrInvalidRecord", err)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		record := valid()
		record.Text = ""
		err := ValidateMessageRecord(record)
		if !errors.Is(err, ErrEmptyText) {
			t.Errorf("ValidateMessageRecord() = %v, want ErrEmptyText", err)
		}
	})

	t.Run("empty source id", func(t *testing.T) {
		record := valid()
		record.SourceID = ""
		err := ValidateMessageRecord(record)
		if !errors.Is(err, ErrEmptySourceID) {
			t.Errorf("ValidateMessageRecord() = %v, want ErrEmptySourceID", err)
		}
	})

	t.Run("unknown metadata kind", func(t *testing.T) {
		record := valid()
		record.Metadata["bogus"] = MetaValue{Kind: MetaKind(99)}
		err := ValidateMessageRecord(record)
		if !errors.Is(err, ErrInvalidMetaValue) {
			t.Errorf("ValidateMessageRecord() = %v, want ErrInvalidMetaValue", err)
		}
	})
}
