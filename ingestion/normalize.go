package ingestion

import (
	"regexp"
	"strings"

	"github.com/archivox/archivox/core"
)

// Slack-flavored markup patterns.
var (
	namedMentionRe  = regexp.MustCompile(`<[@#][A-Z0-9]+\|([^>]*)>`)
	bareMentionRe   = regexp.MustCompile(`<[@#][A-Z0-9]+>`)
	labeledLinkRe   = regexp.MustCompile(`<(https?://[^>|]+)\|([^>]*)>`)
	bareLinkRe      = regexp.MustCompile(`<(https?://[^>]+)>`)
	specialTokenRe  = regexp.MustCompile(`<![a-z]+(\|[^>]*)?>`)
	whitespaceRunRe = regexp.MustCompile(`[ \t]+`)
)

// StripMarkup removes platform markup from a message body: user and
// channel mentions are reduced to their readable labels, links to their
// labels or URLs, and escaped entities are unescaped.
func StripMarkup(text string) string {
	text = labeledLinkRe.ReplaceAllString(text, "$2")
	text = bareLinkRe.ReplaceAllString(text, "$1")
	text = namedMentionRe.ReplaceAllString(text, "$1")
	text = bareMentionRe.ReplaceAllString(text, "")
	text = specialTokenRe.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&amp;", "&")

	text = whitespaceRunRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// NormalizeMessage maps a raw message to an indexable record.
// Returns false when the message is filtered out: system messages,
// bot messages, and messages that are empty once markup is stripped.
// Thread replies are flattened into the parent record, one per line.
func NormalizeMessage(raw RawMessage) (*core.MessageRecord, bool) {
	if raw.SubType != "" || raw.BotID != "" {
		return nil, false
	}

	text := StripMarkup(raw.Text)
	if text == "" {
		return nil, false
	}

	lines := []string{text}
	for _, reply := range raw.ThreadReplies {
		if reply.SubType != "" || reply.BotID != "" {
			continue
		}
		replyText := StripMarkup(reply.Text)
		if replyText == "" {
			continue
		}
		lines = append(lines, replyText)
	}

	metadata := core.Metadata{
		"channel": core.MetaString(raw.Channel),
	}
	if raw.User != "" {
		metadata["author"] = core.MetaString(raw.User)
	}
	if !raw.Timestamp.IsZero() {
		metadata["timestamp"] = core.MetaTime(raw.Timestamp)
	}
	if raw.Permalink != "" {
		metadata["url"] = core.MetaString(raw.Permalink)
	}

	return &core.MessageRecord{
		Id:       core.IDFromSource(raw.Channel, raw.TS),
		SourceID: raw.Channel + ":" + raw.TS,
		Text:     strings.Join(lines, "\n"),
		Metadata: metadata,
	}, true
}

// Normalize maps raw messages to indexable records, dropping the ones
// that do not survive filtering.
func Normalize(raws []RawMessage) []*core.MessageRecord {
	records := make([]*core.MessageRecord, 0, len(raws))
	for _, raw := range raws {
		if record, ok := NormalizeMessage(raw); ok {
			records = append(records, record)
		}
	}
	return records
}

// Deduplicate collapses records sharing an ID to the last occurrence
// (last-write-wins), so re-running ingestion over overlapping data is
// safe. The first occurrence's position is kept.
func Deduplicate(records []*core.MessageRecord) []*core.MessageRecord {
	result := make([]*core.MessageRecord, 0, len(records))
	seen := make(map[core.ID]int, len(records))

	for _, record := range records {
		if idx, ok := seen[record.Id]; ok {
			result[idx] = record
			continue
		}
		seen[record.Id] = len(result)
		result = append(result, record)
	}

	return result
}
