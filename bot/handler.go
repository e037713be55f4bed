package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/archivox/archivox/core"
)

// Searcher answers natural-language queries with ranked results.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]core.ResultItem, error)
}

// Poster posts a message to a channel, optionally threaded.
type Poster interface {
	PostMessage(ctx context.Context, channelID, threadTS, text string) (string, error)
}

const usageReply = "Ask me a question and I'll search the channel history, e.g. `@archivox what happened to the database last week?`"

// Handler turns a mention into a search and a threaded reply.
type Handler struct {
	searcher      Searcher
	poster        Poster
	maxResults    int
	minSimilarity float32
	logger        *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithMaxResults sets how many matches a reply may contain.
// Default is 3.
func WithMaxResults(n int) HandlerOption {
	return func(h *Handler) {
		if n >= 1 {
			h.maxResults = n
		}
	}
}

// WithMinSimilarity drops matches below the given similarity.
// Default is 0.3.
func WithMinSimilarity(s float32) HandlerOption {
	return func(h *Handler) {
		h.minSimilarity = s
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a mention handler.
func NewHandler(searcher Searcher, poster Poster, opts ...HandlerOption) (*Handler, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if poster == nil {
		return nil, ErrPosterRequired
	}

	h := &Handler{
		searcher:      searcher,
		poster:        poster,
		maxResults:    3,
		minSimilarity: 0.3,
		logger:        slog.Default().With("component", "bot"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// HandleMention answers a mention posted in channelID. The reply is
// threaded under threadTS.
func (h *Handler) HandleMention(ctx context.Context, channelID, threadTS, text string) error {
	question := StripMention(text)
	if question == "" {
		_, err := h.poster.PostMessage(ctx, channelID, threadTS, usageReply)
		return err
	}

	results, err := h.searcher.Search(ctx, question, h.maxResults)
	if err != nil {
		h.logger.Error("search failed for mention", "channel", channelID, "err", err)
		_, postErr := h.poster.PostMessage(ctx, channelID, threadTS,
			"Sorry, I couldn't search right now. Please try again later.")
		if postErr != nil {
			return postErr
		}
		return err
	}

	reply := h.formatReply(results)
	_, err = h.poster.PostMessage(ctx, channelID, threadTS, reply)
	return err
}

// formatReply renders matches above the similarity floor, with source
// links when the record carries one.
func (h *Handler) formatReply(results []core.ResultItem) string {
	kept := results[:0:0]
	for _, result := range results {
		if result.Similarity() >= h.minSimilarity {
			kept = append(kept, result)
		}
	}

	if len(kept) == 0 {
		return "I couldn't find anything relevant in the channel history."
	}

	var b strings.Builder
	b.WriteString("Here's what I found:\n")
	for i, result := range kept {
		fmt.Fprintf(&b, "%d. %s", i+1, firstLine(result.Record.Text))
		if url, ok := result.Record.Metadata["url"]; ok && url.Kind == core.MetaKindString {
			fmt.Fprintf(&b, " (<%s|source>)", url.Str)
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}

func firstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}

// StripMention removes the leading bot mention from an app_mention
// event's text.
func StripMention(text string) string {
	if strings.HasPrefix(text, "<@") {
		if _, after, found := strings.Cut(text, ">"); found {
			return strings.TrimSpace(after)
		}
	}
	return strings.TrimSpace(text)
}
