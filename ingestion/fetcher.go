package ingestion

import (
	"context"
	"time"
)

// RawMessage is an unprocessed message as returned by the chat platform.
type RawMessage struct {
	Channel   string
	TS        string // platform timestamp identifier, unique within a channel
	User      string
	Text      string
	SubType   string // non-empty for system messages (joins, topic changes, ...)
	BotID     string // non-empty for bot-authored messages
	Permalink string
	Timestamp time.Time

	// ThreadReplies carries the replies of a threaded conversation.
	// Replies are flattened into the parent record during normalization.
	ThreadReplies []RawMessage
}

// TimeWindow bounds a fetch to messages within [Oldest, Latest).
// Zero values leave the corresponding bound open.
type TimeWindow struct {
	Oldest time.Time
	Latest time.Time
}

// Fetcher obtains raw messages from the chat platform. The platform
// client is an opaque external collaborator; the pipeline only depends
// on this boundary.
type Fetcher interface {
	// FetchMessages returns the messages of a channel within the window,
	// ordered as the platform returns them.
	FetchMessages(ctx context.Context, channel string, window TimeWindow) ([]RawMessage, error)
}
