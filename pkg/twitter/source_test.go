package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfollowers/pkg/errors"
)

// pagedServer serves a handle lookup plus a scripted sequence of follower
// pages keyed by pagination_token.
func pagedServer(t *testing.T, userID string, pages map[string]FollowersResponse) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/by/username/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UserLookupResponse{Data: &UserObject{ID: userID, Username: "subject"}})
	})
	mux.HandleFunc("/2/users/", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("pagination_token")
		page, ok := pages[token]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(ErrorBody{Title: "Invalid Request", Detail: "unknown pagination token"})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	})

	return httptest.NewServer(mux)
}

func TestPageSourceWalksAllPages(t *testing.T) {
	server := pagedServer(t, "9000", map[string]FollowersResponse{
		"": {
			Data: []FollowerObject{
				{Username: "alice", PublicMetrics: metrics(1, 0)},
				{Username: "bob", PublicMetrics: metrics(2, 0)},
			},
			Meta: PageMeta{ResultCount: 2, NextToken: "p2"},
		},
		"p2": {
			Data: []FollowerObject{
				{Username: "carol", PublicMetrics: metrics(3, 0)},
			},
			Meta: PageMeta{ResultCount: 1},
		},
	})
	defer server.Close()

	c := NewClient("tok", nil, nil)
	c.SetBaseURL(server.URL)

	src, err := NewPageSource(context.Background(), c, "subject")
	require.NoError(t, err)
	assert.Equal(t, "9000", src.UserID())

	batch, hasMore, err := src.NextBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, "alice", batch[0].Username)
	assert.True(t, hasMore)
	assert.Equal(t, "p2", src.Cursor())

	batch, hasMore, err = src.NextBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "carol", batch[0].Username)
	assert.False(t, hasMore)
	assert.Equal(t, "", src.Cursor())

	// Exhausted source keeps answering empty.
	batch, hasMore, err = src.NextBatch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.False(t, hasMore)
}

func TestPageSourceResumesFromCursor(t *testing.T) {
	server := pagedServer(t, "9000", map[string]FollowersResponse{
		"saved": {
			Data: []FollowerObject{
				{Username: "dave", PublicMetrics: metrics(4, 0)},
			},
			Meta: PageMeta{ResultCount: 1},
		},
	})
	defer server.Close()

	c := NewClient("tok", nil, nil)
	c.SetBaseURL(server.URL)

	src, err := NewPageSource(context.Background(), c, "subject", WithCursor("saved"))
	require.NoError(t, err)

	batch, hasMore, err := src.NextBatch(context.Background())
	require.NoError(t, err)
	require.Len(t, batch, 1)
	assert.Equal(t, "dave", batch[0].Username)
	assert.False(t, hasMore)
}

func TestPageSourceLookupFailureIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorBody{Title: "Not Found Error"})
	}))
	defer server.Close()

	c := NewClient("tok", nil, nil)
	c.SetBaseURL(server.URL)

	_, err := NewPageSource(context.Background(), c, "ghost")
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestPageSourcePageFailureIsNotFatal(t *testing.T) {
	server := pagedServer(t, "9000", map[string]FollowersResponse{})
	defer server.Close()

	c := NewClient("tok", nil, nil)
	c.SetBaseURL(server.URL)

	src, err := NewPageSource(context.Background(), c, "subject")
	require.NoError(t, err)

	_, _, err = src.NextBatch(context.Background())
	require.Error(t, err)
	assert.False(t, errors.IsFatal(err))
}
