// Package bot answers channel mentions with semantic search results.
// It connects over Slack Socket Mode, so no public HTTP endpoint is
// needed.
package bot
