// Package search provides semantic retrieval over indexed chat messages.
// A query is embedded with the same model used at ingestion time and
// matched against stored vectors by cosine distance.
package search
