// Package slack adapts the Slack Web API to the ingestion pipeline. It
// resolves channel names, pages through conversation history, expands
// threads, and resolves permalinks for indexed messages.
package slack
