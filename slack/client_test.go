package slack

import (
	"context"
	"testing"
	"time"

	api "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivox/archivox/ingestion"
)

// fakeAPI implements conversationAPI with canned responses.
type fakeAPI struct {
	channels []api.Channel
	history  []api.Message
	replies  map[string][]api.Message
	permalinks map[string]string
	posted     []string
}

func (f *fakeAPI) GetConversationsContext(ctx context.Context, params *api.GetConversationsParameters) ([]api.Channel, string, error) {
	return f.channels, "", nil
}

func (f *fakeAPI) GetConversationHistoryContext(ctx context.Context, params *api.GetConversationHistoryParameters) (*api.GetConversationHistoryResponse, error) {
	return &api.GetConversationHistoryResponse{Messages: f.history}, nil
}

func (f *fakeAPI) GetConversationRepliesContext(ctx context.Context, params *api.GetConversationRepliesParameters) ([]api.Message, bool, string, error) {
	return f.replies[params.Timestamp], false, "", nil
}

func (f *fakeAPI) GetPermalinkContext(ctx context.Context, params *api.PermalinkParameters) (string, error) {
	return f.permalinks[params.Ts], nil
}

func (f *fakeAPI) PostMessageContext(ctx context.Context, channelID string, options ...api.MsgOption) (string, string, error) {
	f.posted = append(f.posted, channelID)
	return channelID, "1700000099.000001", nil
}

func message(ts, user, text string) api.Message {
	return api.Message{Msg: api.Msg{Timestamp: ts, User: user, Text: text}}
}

func newChannel(id, name string) api.Channel {
	ch := api.Channel{}
	ch.ID = id
	ch.Name = name
	return ch
}

func TestClient_ResolveChannelID(t *testing.T) {
	fake := &fakeAPI{channels: []api.Channel{
		newChannel("C111", "general"),
		newChannel("C222", "incidents"),
	}}
	client, err := newClient(fake)
	require.NoError(t, err)

	t.Run("by name", func(t *testing.T) {
		id, err := client.ResolveChannelID(context.Background(), "incidents")
		require.NoError(t, err)
		assert.Equal(t, "C222", id)
	})

	t.Run("id passthrough", func(t *testing.T) {
		id, err := client.ResolveChannelID(context.Background(), "C0FFEE123")
		require.NoError(t, err)
		assert.Equal(t, "C0FFEE123", id)
	})

	t.Run("unknown name", func(t *testing.T) {
		_, err := client.ResolveChannelID(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrChannelNotFound)
	})
}

func TestClient_FetchMessages(t *testing.T) {
	parent := message("1700000000.000100", "U1", "database is down")
	parent.ThreadTimestamp = "1700000000.000100"
	parent.ReplyCount = 1

	fake := &fakeAPI{
		channels: []api.Channel{newChannel("C111", "general")},
		history: []api.Message{
			parent,
			message("1700000010.000200", "U2", "deploy succeeded"),
		},
		replies: map[string][]api.Message{
			"1700000000.000100": {
				message("1700000000.000100", "U1", "database is down"),
				message("1700000005.000300", "U2", "restarting now"),
			},
		},
		permalinks: map[string]string{
			"1700000000.000100": "https://example.slack.com/archives/C111/p1700000000000100",
		},
	}

	client, err := newClient(fake)
	require.NoError(t, err)

	messages, err := client.FetchMessages(context.Background(), "general", ingestion.TimeWindow{})
	require.NoError(t, err)
	require.Len(t, messages, 2)

	first := messages[0]
	assert.Equal(t, "general", first.Channel)
	assert.Equal(t, "1700000000.000100", first.TS)
	assert.Equal(t, "database is down", first.Text)
	assert.Equal(t, time.Unix(1700000000, 100_000).UTC(), first.Timestamp)
	assert.Equal(t, "https://example.slack.com/archives/C111/p1700000000000100", first.Permalink)

	// Thread parent is excluded from its own replies.
	require.Len(t, first.ThreadReplies, 1)
	assert.Equal(t, "restarting now", first.ThreadReplies[0].Text)

	assert.Empty(t, messages[1].ThreadReplies)
}

func TestClient_PostMessage(t *testing.T) {
	fake := &fakeAPI{}
	client, err := newClient(fake)
	require.NoError(t, err)

	ts, err := client.PostMessage(context.Background(), "C111", "1700000000.000100", "found 2 matches")
	require.NoError(t, err)
	assert.NotEmpty(t, ts)
	assert.Equal(t, []string{"C111"}, fake.posted)
}

func TestNewClient_RequiresToken(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrTokenRequired)
}
