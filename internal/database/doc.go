// Package database provides SQLite-based storage for collection runs.
//
// Each run stores the dataset produced by one crawl or REST fetch:
// a row in the runs table plus one row per record with its fields
// serialized as JSON. Persisted runs let successive collections be
// compared without re-crawling.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because:
// 1. No external dependencies - the database is a single file
// 2. CGO-free implementation allows easy cross-compilation
// 3. Sufficient performance for our use case
// 4. WAL mode provides good concurrent read performance
package database
