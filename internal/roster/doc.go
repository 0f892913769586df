// Package roster defines the entities, extraction records, and collaborator interfaces shared by the
// roster crawl pipeline.
//
// The pipeline moves facts in one direction: a Fetcher retrieves markup, the parser turns it into
// ListingEntry or UniformEntry records, and the reconciler maps those records onto Store rows without
// creating duplicates. Keeping the contracts here lets each stage be tested against fakes.
package roster
