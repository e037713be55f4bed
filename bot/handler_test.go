package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivox/archivox/core"
)

type stubSearcher struct {
	results []core.ResultItem
	err     error
	queries []string
}

func (s *stubSearcher) Search(ctx context.Context, query string, topK int) ([]core.ResultItem, error) {
	s.queries = append(s.queries, query)
	return s.results, s.err
}

type stubPoster struct {
	messages []string
	threads  []string
}

func (p *stubPoster) PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error) {
	p.messages = append(p.messages, text)
	p.threads = append(p.threads, threadTS)
	return "1.000001", nil
}

func result(text string, distance float32, url string) core.ResultItem {
	record := &core.MessageRecord{Text: text, Metadata: core.Metadata{}}
	if url != "" {
		record.Metadata["url"] = core.MetaString(url)
	}
	return core.ResultItem{Record: record, Distance: distance}
}

func TestStripMention(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"mention prefix", "<@U0BOT> what broke yesterday?", "what broke yesterday?"},
		{"no mention", "what broke yesterday?", "what broke yesterday?"},
		{"mention only", "<@U0BOT>", ""},
		{"whitespace", "<@U0BOT>   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StripMention(tt.input))
		})
	}
}

func TestHandler_HandleMention(t *testing.T) {
	searcher := &stubSearcher{results: []core.ResultItem{
		result("database is down", 0.1, "https://example.slack.com/p1"),
		result("deploy succeeded", 0.8, ""),
	}}
	poster := &stubPoster{}

	handler, err := NewHandler(searcher, poster)
	require.NoError(t, err)

	err = handler.HandleMention(context.Background(), "C111", "1.000100", "<@U0BOT> what happened to the database?")
	require.NoError(t, err)

	require.Equal(t, []string{"what happened to the database?"}, searcher.queries)
	require.Len(t, poster.messages, 1)
	assert.Equal(t, "1.000100", poster.threads[0])

	reply := poster.messages[0]
	assert.Contains(t, reply, "database is down")
	assert.Contains(t, reply, "<https://example.slack.com/p1|source>")
	// Below the similarity floor.
	assert.NotContains(t, reply, "deploy succeeded")
}

func TestHandler_HandleMention_EmptyQuestion(t *testing.T) {
	searcher := &stubSearcher{}
	poster := &stubPoster{}

	handler, err := NewHandler(searcher, poster)
	require.NoError(t, err)

	err = handler.HandleMention(context.Background(), "C111", "1.000100", "<@U0BOT>")
	require.NoError(t, err)

	assert.Empty(t, searcher.queries)
	require.Len(t, poster.messages, 1)
	assert.Equal(t, usageReply, poster.messages[0])
}

func TestHandler_HandleMention_NoMatches(t *testing.T) {
	handler, err := NewHandler(&stubSearcher{}, &stubPoster{})
	require.NoError(t, err)

	poster := handler.poster.(*stubPoster)
	require.NoError(t, handler.HandleMention(context.Background(), "C111", "1.000100", "<@U0BOT> anything?"))
	require.Len(t, poster.messages, 1)
	assert.Contains(t, poster.messages[0], "couldn't find anything relevant")
}

func TestHandler_HandleMention_SearchError(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("provider offline")}
	poster := &stubPoster{}

	handler, err := NewHandler(searcher, poster)
	require.NoError(t, err)

	err = handler.HandleMention(context.Background(), "C111", "1.000100", "<@U0BOT> anything?")
	require.Error(t, err)

	// The user still gets an apology.
	require.Len(t, poster.messages, 1)
	assert.Contains(t, poster.messages[0], "try again later")
}

func TestNewHandler_Validation(t *testing.T) {
	_, err := NewHandler(nil, &stubPoster{})
	assert.ErrorIs(t, err, ErrSearcherRequired)

	_, err = NewHandler(&stubSearcher{}, nil)
	assert.ErrorIs(t, err, ErrPosterRequired)
}

func TestNew_RequiresTokens(t *testing.T) {
	_, err := New("", "xapp-1", &stubSearcher{}, &stubPoster{})
	assert.ErrorIs(t, err, ErrTokensRequired)
}
