// Package crawler drives the roster crawl: it walks the work units of a mode, fetches each page,
// parses it, and hands the candidates to the reconciler, pausing between fetches.
//
// Listing mode walks a set of letters. Detail mode walks a snapshot of the players already in the
// store, taken once when the run starts. A failure in one work unit is logged and counted, and the
// driver moves on. Only loss of the store or cancellation of the context ends a run early.
package crawler
