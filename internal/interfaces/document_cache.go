package interfaces

import "context"

// DocumentCache bounds the number of concurrently held parsed documents.
// Acquire returns the handle plus a release func the caller must invoke when
// done with it; an evicted handle is only closed once every borrower has
// released it. Eviction is FIFO by insertion order, not usage recency.
type DocumentCache interface {
	// Acquire returns a cached handle for the document, parsing raw bytes on
	// a miss. Concurrent acquires for the same uncached id share one parse.
	Acquire(ctx context.Context, docID, name string, raw []byte) (DocumentHandle, func(), error)

	// Invalidate forcibly evicts a document's handle, e.g. after its content
	// was replaced.
	Invalidate(docID string)

	// Clear evicts everything. Used on full workspace reset.
	Clear()
}
