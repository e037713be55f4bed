package bot

import (
	"context"
	"log/slog"

	api "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// Bot runs a Socket Mode connection and dispatches app mentions to a
// Handler.
type Bot struct {
	socket  *socketmode.Client
	handler *Handler
	logger  *slog.Logger
}

// New creates a bot. botToken is the xoxb bot token, appToken the xapp
// app-level token with the connections:write scope.
func New(botToken, appToken string, searcher Searcher, poster Poster, opts ...HandlerOption) (*Bot, error) {
	if botToken == "" || appToken == "" {
		return nil, ErrTokensRequired
	}

	handler, err := NewHandler(searcher, poster, opts...)
	if err != nil {
		return nil, err
	}

	client := api.New(botToken, api.OptionAppLevelToken(appToken))
	return &Bot{
		socket:  socketmode.New(client),
		handler: handler,
		logger:  handler.logger,
	}, nil
}

// Run connects to Slack and serves mentions until the context is
// cancelled.
func (b *Bot) Run(ctx context.Context) error {
	go b.dispatch(ctx)
	return b.socket.RunContext(ctx)
}

func (b *Bot) dispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-b.socket.Events:
			if !ok {
				return
			}
			b.handleEvent(ctx, evt)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnectionError:
		b.logger.Warn("socket mode connection error, will retry")

	case socketmode.EventTypeEventsAPI:
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			return
		}
		if evt.Request != nil {
			b.socket.Ack(*evt.Request)
		}

		if event.Type != slackevents.CallbackEvent {
			return
		}

		mention, ok := event.InnerEvent.Data.(*slackevents.AppMentionEvent)
		if !ok {
			return
		}

		threadTS := mention.ThreadTimeStamp
		if threadTS == "" {
			threadTS = mention.TimeStamp
		}

		if err := b.handler.HandleMention(ctx, mention.Channel, threadTS, mention.Text); err != nil {
			b.logger.Error("failed to handle mention", "channel", mention.Channel, "err", err)
		}
	}
}
