// Package indexerrun drives one indexer's pull-based ingestion run: data
// source enumeration, bounded-concurrency document preparation, skill
// pipeline enrichment, field mapping, and bulk commit to the document
// store, per §4.8.
package indexerrun

import "context"

// SourceDocument is one document metadata record surfaced by a data
// source connector's enumeration, before its body has been downloaded.
type SourceDocument struct {
	Key string

	// HighWaterMarkValue is the source's change-tracking value for this
	// document (a timestamp or row-version string), used for the
	// per-document change-detection probe. Empty when the data source
	// declares no high-water-mark column.
	HighWaterMarkValue string

	// FetchBody downloads the document body on demand.
	FetchBody func(ctx context.Context) ([]byte, error)
}

// DataSource abstracts the connector a data source definition resolves
// to: enumerate documents modified since the stored high-water-mark.
type DataSource interface {
	Enumerate(ctx context.Context, sinceHighWaterMark string) ([]SourceDocument, error)
}
