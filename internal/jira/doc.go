// Package jira is a minimal client for the Jira REST API (v2), covering
// exactly what the collector needs: paginated JQL search for issue keys
// and single-issue fetches flattened into detail records.
//
// The REST path produces the same flat records as the browser crawl, so
// a dataset fetched over the API and one scraped from rendered pages
// export identically.
package jira
