package twitter

// UserLookupResponse is the response of the user-by-username endpoint.
type UserLookupResponse struct {
	Data   *UserObject `json:"data"`
	Errors []APIError  `json:"errors"`
}

// UserObject is a single user entry in API responses.
type UserObject struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// FollowersResponse is one page of the followers endpoint.
type FollowersResponse struct {
	Data   []FollowerObject `json:"data"`
	Meta   PageMeta         `json:"meta"`
	Errors []APIError       `json:"errors"`
}

// FollowerObject is a follower entry with the requested user.fields.
type FollowerObject struct {
	ID            string         `json:"id"`
	Username      string         `json:"username"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Verified      bool           `json:"verified"`
	PublicMetrics *PublicMetrics `json:"public_metrics"`
}

// PublicMetrics carries the follower counts of a user. The pointer in
// FollowerObject distinguishes "absent" from zero; absent defaults to 0.
type PublicMetrics struct {
	FollowersCount int `json:"followers_count"`
	FollowingCount int `json:"following_count"`
}

// PageMeta carries the continuation token. An empty NextToken means the end
// of the list was reached.
type PageMeta struct {
	ResultCount int    `json:"result_count"`
	NextToken   string `json:"next_token"`
}

// APIError is an entry of the errors array in API responses.
type APIError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

// ErrorBody is the body of a non-2xx API response.
type ErrorBody struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
	Status int    `json:"status"`
}
