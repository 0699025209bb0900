// Package twitter implements the X API v2 client used by the paginated
// retrieval variant: handle resolution, cursor-paginated follower pages,
// and classification of API error responses into the pipeline taxonomy.
//
// Lookup failures (unknown handle, revoked access) are fatal; page failures
// mid-collection are classified source errors that the pipeline absorbs,
// keeping whatever was already collected.
package twitter
