// Package collector implements the follower collection pipeline shared by
// both retrieval variants.
//
// A BatchSource abstracts "give me the next batch of follower records": the
// paginated REST source pulls cursor-addressed pages, the browser source
// extracts whatever the rendered followers view currently shows. The
// Collector runs the same loop against either: deduplicate by username,
// stop hard at the optional cap, pause politely between cycles, and finish
// with a stable sort by follower count descending.
//
// Source failures mid-run are not fatal. The collector stops, reports the
// classified error, and returns everything gathered so far; an interrupt is
// treated the same way. Partial results are valid results.
package collector
