// Package browser drives a headless Chromium instance via go-rod.
//
// The issue index is a JavaScript view: the list fills in after load and
// the "next page" affordance is a scripted control, so enumeration needs
// a real rendered page. Detail pages are server-rendered and normally
// bypass the browser; Session.Fetch exists for the sites where they are
// not.
//
// The package has no unit tests because every path needs a running
// Chromium; the crawl loop it plugs into is tested against fake pagers
// in the crawler package.
package browser
