// Package crawler implements the list-then-detail crawl over a paginated
// issue index.
//
// # Architecture
//
// The crawl is three strictly sequential phases:
//
//  1. Enumerate: walk the paginated index via a Pager, collecting item
//     references in first-seen order with exact-string deduplication.
//  2. Detail: fetch each reference through a Fetcher and extract one flat
//     record per item. This phase may run on a bounded worker pool; the
//     record order always follows discovery order.
//  3. The accumulated dataset is handed back to the caller for export.
//
// The Pager and Fetcher interfaces decouple the loop from how pages are
// obtained: the browser package drives a real rendered page for the index
// (the "next" control is a JavaScript affordance), while detail pages are
// served as static HTML and default to the plain HTTPFetcher.
//
// # Termination
//
// End of pagination is signalled by ErrNoNextControl and is a normal
// outcome. An error activating a control that is present is retried a
// bounded number of times and then treated as the end of the list with a
// logged warning, so a flaky control never fails an otherwise good run.
package crawler
