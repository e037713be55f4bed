// Package mock provides test doubles for the ai package interfaces.
// The default behavior is deterministic so tests can rely on stable
// vectors without injecting custom functions.
package mock
