// Package searcher provides the scratch state of a single neighbor query.
//
// The Searcher struct owns all reusable resources needed for classification:
//   - A bounded max-heap holding the K best (distance, row) pairs
//   - Per-class vote counters
//   - Per-class closest-distance trackers
//
// Searchers are pooled by the classifier for reuse across queries.
package searcher
