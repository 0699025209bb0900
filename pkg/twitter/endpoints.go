package twitter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the base URL of the X API v2.
	BaseURL = "https://api.twitter.com"

	// lookupFields are the user.fields requested on handle resolution.
	lookupFields = "id,username"

	// followerFields are the user.fields requested per follower.
	followerFields = "username,name,description,verified,public_metrics"

	// DefaultPageSize is the default followers page size.
	DefaultPageSize = 100

	// MaxPageSize is the maximum page size the endpoint accepts.
	MaxPageSize = 1000

	// MaxHandleLength is the longest handle the site allows.
	MaxHandleLength = 15
)

// UserByUsernameURL builds the handle-resolution URL.
func UserByUsernameURL(base, handle string) string {
	params := url.Values{}
	params.Set("user.fields", lookupFields)

	return fmt.Sprintf("%s/2/users/by/username/%s?%s", base, url.PathEscape(handle), params.Encode())
}

// FollowersURL builds the followers page URL for a resolved account ID.
// An empty cursor requests the first page.
func FollowersURL(base, userID, cursor string, pageSize int) string {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	} else if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	params := url.Values{}
	params.Set("max_results", strconv.Itoa(pageSize))
	params.Set("user.fields", followerFields)
	if cursor != "" {
		params.Set("pagination_token", cursor)
	}

	return fmt.Sprintf("%s/2/users/%s/followers?%s", base, url.PathEscape(userID), params.Encode())
}

// SanitizeHandle strips the leading @ and surrounding whitespace.
func SanitizeHandle(handle string) string {
	handle = strings.TrimSpace(handle)
	handle = strings.TrimPrefix(handle, "@")
	return strings.TrimSuffix(handle, "/")
}

// IsValidHandle reports whether a handle matches the site's username rules:
// letters, digits and underscores, at most 15 characters.
func IsValidHandle(handle string) bool {
	if handle == "" || len(handle) > MaxHandleLength {
		return false
	}
	for _, char := range handle {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '_') {
			return false
		}
	}
	return true
}
