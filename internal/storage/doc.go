// Package storage persists crawl results. The Batcher buffers records and
// flushes them in bulk through a Gateway, which reports each flush as Ok,
// Retryable, or Terminal. Terminal means the parent crawl row no longer
// exists; the crawl engine treats that as a graceful stop, not a fault.
// The bundled Gateway implementation is a SQLite store.
package storage
