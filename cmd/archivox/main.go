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


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	archivox "github.com/archivox/archivox"
	"github.com/archivox/archivox/ai"
	"github.com/archivox/archivox/api"
	"github.com/archivox/archivox/bot"
	"github.com/archivox/archivox/ingestion"
	"github.com/archivox/archivox/search"
	"github.com/archivox/archivox/slack"
)

func main() {
	app := &cli.App{
		Name:   "archivox",
		Usage:  "Semantic search over chat message history",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Fetch channel history and index it for search",
				Action: ingestCommand,
				Flags: append(storeFlags(), append(embeddingFlags(),
					&cli.StringFlag{
						Name:     "channel",
						Aliases:  []string{"c"},
						Usage:    "Channel name or ID to ingest",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "slack-token",
						Usage:   "Slack bot token (xoxb-...)",
						EnvVars: []string{"SLACK_BOT_TOKEN"},
					},
					&cli.IntFlag{
						Name:  "days",
						Usage: "How many days of history to fetch (0 for everything)",
						Value: 7,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of messages to embed per provider call",
						Value: 32,
					},
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Number of concurrent embedding workers",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embedding calls",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "no-permalinks",
						Usage: "Skip permalink resolution (faster, no source links)",
					},
				)...),
			},
			{
				Name:      "query",
				Usage:     "Search indexed messages",
				ArgsUsage: "<question>",
				Action:    queryCommand,
				Flags: append(storeFlags(), append(embeddingFlags(),
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   search.DefaultTopK,
					},
					&cli.BoolFlag{
						Name:  "no-similarity",
						Usage: "Hide similarity scores in the output",
					},
				)...),
			},
			{
				Name:   "stats",
				Usage:  "Show collection statistics",
				Action: statsCommand,
				Flags:  storeFlags(),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP query API",
				Action: serveCommand,
				Flags: append(storeFlags(), append(embeddingFlags(),
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Address to listen on",
						Value: ":8080",
					},
				)...),
			},
			{
				Name:   "bot",
				Usage:  "Run the Socket Mode answer bot",
				Action: botCommand,
				Flags: append(storeFlags(), append(embeddingFlags(),
					&cli.StringFlag{
						Name:    "slack-token",
						Usage:   "Slack bot token (xoxb-...)",
						EnvVars: []string{"SLACK_BOT_TOKEN"},
					},
					&cli.StringFlag{
						Name:    "app-token",
						Usage:   "Slack app-level token (xapp-...)",
						EnvVars: []string{"SLACK_APP_TOKEN"},
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum matches per reply",
						Value: 3,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Drop matches below this similarity",
						Value: 0.3,
					},
				)...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to the database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "collection",
			Usage: "Collection to operate on",
			Value: "messages",
		},
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:    "embedding-token",
			Usage:   "Embedding service API token",
			EnvVars: []string{"EMBEDDING_API_TOKEN"},
		},
	}
}

func openArchive(c *cli.Context) (*archivox.Archive, error) {
	opts := []ai.ConfigOption{
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
	}
	if token := c.String("embedding-token"); token != "" {
		opts = append(opts, ai.WithAPIToken(token))
	}
	if c.IsSet("max-retries") || c.IsSet("retry-delay") {
		opts = append(opts, ai.WithRetry(c.Int("max-retries"), c.Duration("retry-delay")))
	}

	return archivox.Open(c.String("db"), archivox.WithAIConfig(ai.NewConfig(opts...)))
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	token := c.String("slack-token")
	if token == "" {
		return fmt.Errorf("slack token is required (set SLACK_BOT_TOKEN or --slack-token)")
	}

	fetcher, err := slack.NewClient(token,
		slack.WithPermalinks(!c.Bool("no-permalinks")))
	if err != nil {
		return fmt.Errorf("failed to create slack client: %w", err)
	}

	archive, err := openArchive(c)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	pipelineOpts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithRetryPolicy(c.Int("max-retries"), c.Duration("retry-delay")),
		ingestion.WithProgress(os.Stderr),
	}
	if c.IsSet("pool-size") {
		pipelineOpts = append(pipelineOpts, ingestion.WithPoolSize(c.Int("pool-size")))
	}

	pipeline, err := archive.NewPipeline(fetcher, c.String("collection"), pipelineOpts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	window := ingestion.TimeWindow{}
	if days := c.Int("days"); days > 0 {
		window.Oldest = time.Now().AddDate(0, 0, -days)
	}

	summary, err := pipeline.Run(ctx, c.String("channel"), window)
	printSummary(os.Stdout, summary)
	if err != nil {
		return fmt.Errorf("ingestion finished with errors: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, s *ingestion.Summary) {
	fmt.Fprintf(w, "Fetched:    %d\n", s.Fetched)
	fmt.Fprintf(w, "Normalized: %d\n", s.Normalized)
	fmt.Fprintf(w, "Embedded:   %d\n", s.Embedded)
	fmt.Fprintf(w, "Indexed:    %d\n", s.Persisted)
	fmt.Fprintf(w, "Unchanged:  %d\n", s.Unchanged)
	fmt.Fprintf(w, "Skipped:    %d\n", s.Skipped)
}

func queryCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required, e.g. archivox query -d ./db what broke last week")
	}

	archive, err := openArchive(c)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	searcher, err := archive.NewSearcher(c.String("collection"))
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	results, err := searcher.Search(ctx, question, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Println(search.FormatResults(results, !c.Bool("no-similarity")))
	return nil
}

func statsCommand(c *cli.Context) error {
	archive, err := openArchive(c)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	collection := c.String("collection")
	count, err := archive.Store().Count(context.Background(), collection)
	if err != nil {
		return fmt.Errorf("failed to read stats: %w", err)
	}

	fmt.Printf("Collection %q: %d messages\n", collection, count)

	if info, err := archive.Store().CollectionInfo(context.Background(), collection); err == nil && info != nil {
		fmt.Printf("Dimension: %d\n", info.Dimension)
		fmt.Printf("Created:   %s\n", info.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	archive, err := openArchive(c)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	searcher, err := archive.NewSearcher(c.String("collection"))
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: c.String("addr"),
		Handler: api.NewHandler(api.Deps{
			Searcher:   searcher,
			Store:      archive.Store(),
			Collection: c.String("collection"),
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving http api", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		slog.Info("server stopped")
		return nil
	}
}

func botCommand(c *cli.Context) error {
	ctx, stop := signalContext()
	defer stop()

	token := c.String("slack-token")
	appToken := c.String("app-token")
	if token == "" || appToken == "" {
		return fmt.Errorf("bot requires both SLACK_BOT_TOKEN and SLACK_APP_TOKEN")
	}

	poster, err := slack.NewClient(token)
	if err != nil {
		return fmt.Errorf("failed to create slack client: %w", err)
	}

	archive, err := openArchive(c)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	searcher, err := archive.NewSearcher(c.String("collection"))
	if err != nil {
		return err
	}

	b, err := bot.New(token, appToken, searcher, poster,
		bot.WithMaxResults(c.Int("max-results")),
		bot.WithMinSimilarity(float32(c.Float64("min-similarity"))),
	)
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	slog.Info("bot connecting", "collection", c.String("collection"))
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
