package search

import (
	"fmt"
	"strings"

	"github.com/archivox/archivox/core"
)

// NoMatchesMessage is printed when a query returns no results.
const NoMatchesMessage = "No matching messages found."

// FormatResults renders ranked results as numbered lines. When
// showSimilarity is true each line carries the similarity score to
// three decimal places; otherwise the score segment is omitted.
func FormatResults(results []core.ResultItem, showSimilarity bool) string {
	if len(results) == 0 {
		return NoMatchesMessage
	}

	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		if showSimilarity {
			fmt.Fprintf(&b, "%d. %s (score: %.3f)", i+1, result.Record.Text, result.Similarity())
		} else {
			fmt.Fprintf(&b, "%d. %s", i+1, result.Record.Text)
		}
	}
	return b.String()
}
