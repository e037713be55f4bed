package main

import (
	"flag"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/archivox/archivox/ingestion"
)

func TestSetupLogger(t *testing.T) {
	newContext := func(level string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("log-level", level, "")
		return cli.NewContext(&cli.App{}, set, nil)
	}

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
			assert.NoError(t, setupLogger(newContext(level)), level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		err := setupLogger(newContext("verbose"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestStoreFlags_Defaults(t *testing.T) {
	flags := storeFlags()
	require.Len(t, flags, 2)

	collection, ok := flags[1].(*cli.StringFlag)
	require.True(t, ok)
	assert.Equal(t, "messages", collection.Value)
}

func TestPrintSummary(t *testing.T) {
	var b strings.Builder
	printSummary(&b, &ingestion.Summary{
		Fetched:    10,
		Normalized: 8,
		Embedded:   7,
		Persisted:  6,
		Unchanged:  1,
		Skipped:    1,
	})

	out := b.String()
	for _, line := range []string{
		"Fetched:    10",
		"Normalized: 8",
		"Embedded:   7",
		"Indexed:    6",
		"Unchanged:  1",
		"Skipped:    1",
	} {
		assert.Contains(t, out, line)
	}
}
