package twitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfollowers/pkg/errors"
)

// mockAPIServer mimics the X API v2 endpoints the client touches.
type mockAPIServer struct {
	server *httptest.Server

	lookupStatus   int
	lookupBody     interface{}
	followerStatus int
	followerBody   interface{}

	lookupCalls   int32
	followerCalls int32
	lastAuth      string
}

func newMockAPIServer() *mockAPIServer {
	m := &mockAPIServer{
		lookupStatus:   http.StatusOK,
		followerStatus: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/2/users/by/username/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.lookupCalls, 1)
		m.lastAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(m.lookupStatus)
		json.NewEncoder(w).Encode(m.lookupBody)
	})
	mux.HandleFunc("/2/users/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.followerCalls, 1)
		m.lastAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(m.followerStatus)
		json.NewEncoder(w).Encode(m.followerBody)
	})

	m.server = httptest.NewServer(mux)
	return m
}

func (m *mockAPIServer) close() { m.server.Close() }

func (m *mockAPIServer) client(t *testing.T) *Client {
	t.Helper()
	c := NewClient("bearer-token", nil, nil)
	c.SetBaseURL(m.server.URL)
	return c
}

func metrics(followers, following int) *PublicMetrics {
	return &PublicMetrics{FollowersCount: followers, FollowingCount: following}
}

func TestLookupUser(t *testing.T) {
	m := newMockAPIServer()
	defer m.close()
	m.lookupBody = UserLookupResponse{Data: &UserObject{ID: "12345", Username: "alice"}}

	id, err := m.client(t).LookupUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "12345", id)
	assert.Equal(t, "Bearer bearer-token", m.lastAuth)
}

func TestLookupUserUsesAccessTokenWhenSet(t *testing.T) {
	m := newMockAPIServer()
	defer m.close()
	m.lookupBody = UserLookupResponse{Data: &UserObject{ID: "1"}}

	c := m.client(t)
	c.SetAccessToken("user-token")
	_, err := c.LookupUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "Bearer user-token", m.lastAuth)
}

func TestLookupUserNotFound(t *testing.T) {
	m := newMockAPIServer()
	defer m.close()
	m.lookupStatus = http.StatusNotFound
	m.lookupBody = ErrorBody{Title: "Not Found Error", Detail: "Could not find user"}

	_, err := m.client(t).LookupUser(context.Background(), "ghost")
	require.Error(t, err)

	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.TypeLookup, e.Type)
	assert.Equal(t, errors.ReasonNotFound, e.Reason)
	assert.True(t, errors.IsFatal(err))
}

func TestLookupUserEmptyDataTreatedAsNotFound(t *testing.T) {
	m := newMockAPIServer()
	defer m.close()
	m.lookupBody = UserLookupResponse{
		Errors: []APIError{{Title: "Not Found Error", Detail: "Could not find user with username: [ghost]."}},
	}

	_, err := m.client(t).LookupUser(context.Background(), "ghost")
	require.Error(t, err)

	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReasonNotFound, e.Reason)
	assert.Contains(t, e.Message, "ghost")
}

func TestLookupUserAuthFailures(t *testing.T) {
	tests := []struct {
		status int
		want   errors.Reason
	}{
		{http.StatusUnauthorized, errors.ReasonUnauthorized},
		{http.StatusForbidden, errors.ReasonForbidden},
		{http.StatusBadRequest, errors.ReasonBadRequest},
	}

	for _, tt := range tests {
		m := newMockAPIServer()
		m.lookupStatus = tt.status
		m.lookupBody = ErrorBody{Title: "error"}

		_, err := m.client(t).LookupUser(context.Background(), "alice")
		m.close()
		require.Error(t, err)
		e, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.TypeLookup, e.Type, "status %d", tt.status)
		assert.Equal(t, tt.want, e.Reason, "status %d", tt.status)
	}
}

func TestFollowersPage(t *testing.T) {
	m := newMockAPIServer()
	defer m.close()
	m.followerBody = FollowersResponse{
		Data: []FollowerObject{
			{Username: "bob", Name: "Bob", PublicMetrics: metrics(10, 3)},
			{Username: "carol", Name: "Carol", Verified: true, PublicMetrics: metrics(50, 7)},
		},
		Meta: PageMeta{ResultCount: 2, NextToken: "next-tok"},
	}

	page, err := m.client(t).FollowersPage(context.Background(), "12345", "")
	require.NoError(t, err)

	assert.Equal(t, "next-tok", page.NextCursor)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "bob", page.Records[0].Username)
	assert.Equal(t, 10, page.Records[0].FollowerCount)
	assert.Equal(t, 3, page.Records[0].FollowingCount)
	assert.True(t, page.Records[1].Verified)
}

func TestFollowersPageMissingMetricsDefaultToZero(t *testing.T) {
	m := newMockAPIServer()
	defer m.close()
	m.followerBody = FollowersResponse{
		Data: []FollowerObject{{Username: "quiet"}},
	}

	page, err := m.client(t).FollowersPage(context.Background(), "12345", "")
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, 0, page.Records[0].FollowerCount)
	assert.Equal(t, "", page.NextCursor)
}

func TestFollowersPageClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   ErrorBody
		want   errors.Reason
	}{
		{
			name:   "rate limited",
			status: http.StatusTooManyRequests,
			body:   ErrorBody{Title: "Too Many Requests"},
			want:   errors.ReasonRateLimited,
		},
		{
			name:   "unauthorized",
			status: http.StatusUnauthorized,
			body:   ErrorBody{Title: "Unauthorized"},
			want:   errors.ReasonUnauthorized,
		},
		{
			name:   "forbidden",
			status: http.StatusForbidden,
			body:   ErrorBody{Title: "Client Forbidden"},
			want:   errors.ReasonForbidden,
		},
		{
			name:   "tier insufficient",
			status: http.StatusForbidden,
			body:   ErrorBody{Title: "Client Forbidden", Reason: "client-not-enrolled"},
			want:   errors.ReasonTierInsufficient,
		},
		{
			name:   "bad request",
			status: http.StatusBadRequest,
			body:   ErrorBody{Title: "Invalid Request"},
			want:   errors.ReasonBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMockAPIServer()
			defer m.close()
			m.followerStatus = tt.status
			m.followerBody = tt.body

			_, err := m.client(t).FollowersPage(context.Background(), "12345", "")
			require.Error(t, err)

			e, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.TypeSource, e.Type)
			assert.Equal(t, tt.want, e.Reason)
			assert.False(t, errors.IsFatal(err), "page errors must not be fatal")
		})
	}
}

func TestGetJSONRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(UserLookupResponse{Data: &UserObject{ID: "77"}})
	}))
	defer server.Close()

	c := NewClient("tok", nil, nil)
	c.SetBaseURL(server.URL)

	id, err := c.LookupUser(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "77", id)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSONGivesUpAfterMaxRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewClient("tok", nil, nil)
	c.SetBaseURL(server.URL)

	_, err := c.FollowersPage(context.Background(), "1", "")
	require.Error(t, err)
	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReasonTransient, e.Reason)
}
