package slack

import "errors"

var (
	// ErrTokenRequired is returned when no API token is provided.
	ErrTokenRequired = errors.New("slack token is required")

	// ErrChannelNotFound is returned when a channel name cannot be
	// resolved to an ID.
	ErrChannelNotFound = errors.New("channel not found")
)
