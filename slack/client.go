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


package slack

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	api "github.com/slack-go/slack"

	"github.com/archivox/archivox/ingestion"
)

// conversationAPI is the subset of the Slack Web API the client uses.
// *api.Client satisfies it.
type conversationAPI interface {
	GetConversationsContext(ctx context.Context, params *api.GetConversationsParameters) ([]api.Channel, string, error)
	GetConversationHistoryContext(ctx context.Context, params *api.GetConversationHistoryParameters) (*api.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *api.GetConversationRepliesParameters) ([]api.Message, bool, string, error)
	GetPermalinkContext(ctx context.Context, params *api.PermalinkParameters) (string, error)
	PostMessageContext(ctx context.Context, channelID string, options ...api.MsgOption) (string, string, error)
}

var channelIDRe = regexp.MustCompile(`^[CGD][A-Z0-9]{7,}$`)

// Client fetches conversation history from Slack. It implements
// ingestion.Fetcher.
type Client struct {
	api        conversationAPI
	pageLimit  int
	permalinks bool
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client) error

// WithPageLimit sets the page size used for history and reply calls.
// Default is 200, the API maximum for conversations.history.
func WithPageLimit(limit int) Option {
	return func(c *Client) error {
		if limit < 1 {
			limit = 1
		}
		c.pageLimit = limit
		return nil
	}
}

// WithPermalinks controls whether a permalink is resolved for each
// fetched message. Resolution costs one API call per message.
// Default is true.
func WithPermalinks(enabled bool) Option {
	return func(c *Client) error {
		c.permalinks = enabled
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a Slack client authenticated with a bot token.
func NewClient(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrTokenRequired
	}
	return newClient(api.New(token), opts...)
}

func newClient(conversations conversationAPI, opts ...Option) (*Client, error) {
	c := &Client{
		api:        conversations,
		pageLimit:  200,
		permalinks: true,
		logger:     slog.Default().With("component", "slack"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// ResolveChannelID maps a channel name to its ID. Values that already
// look like channel IDs are returned unchanged.
func (c *Client) ResolveChannelID(ctx context.Context, channel string) (string, error) {
	if channelIDRe.MatchString(channel) {
		return channel, nil
	}

	params := &api.GetConversationsParameters{
		Limit: c.pageLimit,
		Types: []string{"public_channel", "private_channel"},
	}

	for {
		channels, cursor, err := c.api.GetConversationsContext(ctx, params)
		if err != nil {
			return "", fmt.Errorf("failed to list channels: %w", err)
		}

		for _, ch := range channels {
			if ch.Name == channel {
				return ch.ID, nil
			}
		}

		if cursor == "" {
			return "", fmt.Errorf("%w: %s", ErrChannelNotFound, channel)
		}
		params.Cursor = cursor
	}
}

// FetchMessages pages through a channel's history within the given time
// window, expanding threads into the parent message's replies. Channel
// may be a name or an ID.
func (c *Client) FetchMessages(ctx context.Context, channel string, window ingestion.TimeWindow) ([]ingestion.RawMessage, error) {
	channelID, err := c.ResolveChannelID(ctx, channel)
	if err != nil {
		return nil, err
	}

	params := &api.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     c.pageLimit,
	}
	if !window.Oldest.IsZero() {
		params.Oldest = FormatTS(window.Oldest)
	}
	if !window.Latest.IsZero() {
		params.Latest = FormatTS(window.Latest)
	}

	var messages []ingestion.RawMessage
	for {
		resp, err := c.api.GetConversationHistoryContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch history for %s: %w", channelID, err)
		}

		for _, msg := range resp.Messages {
			raw, err := c.toRawMessage(ctx, channel, channelID, msg)
			if err != nil {
				return nil, err
			}
			messages = append(messages, raw)
		}

		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		params.Cursor = resp.ResponseMetaData.NextCursor
	}

	c.logger.Info("fetched channel history", "channel", channel, "messages", len(messages))
	return messages, nil
}

func (c *Client) toRawMessage(ctx context.Context, channel, channelID string, msg api.Message) (ingestion.RawMessage, error) {
	raw := ingestion.RawMessage{
		Channel: channel,
		TS:      msg.Timestamp,
		User:    msg.User,
		Text:    msg.Text,
		SubType: msg.SubType,
		BotID:   msg.BotID,
	}

	if ts, err := ParseTS(msg.Timestamp); err == nil {
		raw.Timestamp = ts
	}

	// Only thread parents carry replies; replies themselves do not show
	// up in channel history.
	if msg.ThreadTimestamp == msg.Timestamp && msg.ReplyCount > 0 {
		replies, err := c.fetchReplies(ctx, channel, channelID, msg.Timestamp)
		if err != nil {
			return raw, err
		}
		raw.ThreadReplies = replies
	}

	if c.permalinks && msg.SubType == "" && msg.BotID == "" {
		link, err := c.api.GetPermalinkContext(ctx, &api.PermalinkParameters{
			Channel: channelID,
			Ts:      msg.Timestamp,
		})
		if err != nil {
			c.logger.Warn("failed to resolve permalink", "channel", channel, "ts", msg.Timestamp, "err", err)
		} else {
			raw.Permalink = link
		}
	}

	return raw, nil
}

func (c *Client) fetchReplies(ctx context.Context, channel, channelID, threadTS string) ([]ingestion.RawMessage, error) {
	params := &api.GetConversationRepliesParameters{
		ChannelID: channelID,
		Timestamp: threadTS,
		Limit:     c.pageLimit,
	}

	var replies []ingestion.RawMessage
	for {
		msgs, hasMore, cursor, err := c.api.GetConversationRepliesContext(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch thread %s: %w", threadTS, err)
		}

		for _, msg := range msgs {
			// The parent is returned as the first message of the thread.
			if msg.Timestamp == threadTS {
				continue
			}
			replies = append(replies, ingestion.RawMessage{
				Channel: channel,
				TS:      msg.Timestamp,
				User:    msg.User,
				Text:    msg.Text,
				SubType: msg.SubType,
				BotID:   msg.BotID,
			})
		}

		if !hasMore || cursor == "" {
			break
		}
		params.Cursor = cursor
	}

	return replies, nil
}

// PostMessage posts text to a channel, threaded under threadTS when it
// is non-empty. Returns the timestamp of the posted message.
func (c *Client) PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error) {
	options := []api.MsgOption{api.MsgOptionText(text, false)}
	if threadTS != "" {
		options = append(options, api.MsgOptionTS(threadTS))
	}

	_, ts, err := c.api.PostMessageContext(ctx, channelID, options...)
	if err != nil {
		return "", fmt.Errorf("failed to post message: %w", err)
	}
	return ts, nil
}
