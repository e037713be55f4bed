package bot

import "errors"

var (
	// ErrSearcherRequired is returned when no searcher is provided.
	ErrSearcherRequired = errors.New("searcher is required")

	// ErrPosterRequired is returned when no poster is provided.
	ErrPosterRequired = errors.New("poster is required")

	// ErrTokensRequired is returned when the bot or app token is missing.
	ErrTokensRequired = errors.New("bot token and app token are required")
)
