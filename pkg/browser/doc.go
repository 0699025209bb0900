// Package browser collects followers by driving a real browser over the
// site's followers page, for accounts whose API tier does not expose the
// followers endpoint.
//
// Two drivers implement the same Session contract: RemoteSession runs a
// hosted cloud browser whose language model interprets instructions, and
// LocalSession drives a local Chrome and pattern-matches the same
// instructions onto DevTools actions. ScrollSource turns either one into a
// batch source the collection pipeline can consume.
package browser
