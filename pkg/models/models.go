package models

import "time"

// Follower is a single collected follower record. Identity is the Username,
// case-sensitive as returned by the source. Records are never mutated after
// collection; ranking is expressed by position in a ResultSet.
type Follower struct {
	Username       string `json:"username"`
	DisplayName    string `json:"display_name,omitempty"`
	Bio            string `json:"bio,omitempty"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count,omitempty"`
	Verified       bool   `json:"verified,omitempty"`
}

// ResultSet is the final output of a collection run: the cap-truncated
// follower list sorted by follower count descending, plus metadata about
// the run itself.
type ResultSet struct {
	Subject     string
	GeneratedAt time.Time
	Followers   []Follower
}

// Total returns the number of collected followers.
func (rs *ResultSet) Total() int {
	return len(rs.Followers)
}

// Top returns the first n followers, or all of them when fewer exist.
func (rs *ResultSet) Top(n int) []Follower {
	if n <= 0 || n > len(rs.Followers) {
		return rs.Followers
	}
	return rs.Followers[:n]
}
