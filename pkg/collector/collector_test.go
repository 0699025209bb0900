package collector

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xfollowers/pkg/errors"
	"xfollowers/pkg/models"
)

// scriptedSource replays a fixed sequence of batches, optionally ending with
// an error, mimicking a paginated or scrolled source.
type scriptedSource struct {
	batches  [][]models.Follower
	finalErr error
	calls    int
}

func (s *scriptedSource) NextBatch(ctx context.Context) ([]models.Follower, bool, error) {
	if s.calls >= len(s.batches) {
		if s.finalErr != nil {
			return nil, false, s.finalErr
		}
		return nil, false, nil
	}
	batch := s.batches[s.calls]
	s.calls++
	hasMore := s.calls < len(s.batches) || s.finalErr != nil
	return batch, hasMore, nil
}

func follower(username string, count int) models.Follower {
	return models.Follower{Username: username, FollowerCount: count}
}

func usernames(fs []models.Follower) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Username
	}
	return out
}

func TestCollectTwoPageScenario(t *testing.T) {
	src := &scriptedSource{batches: [][]models.Follower{
		{follower("bob", 10), follower("carol", 50)},
		{follower("dave", 30)},
	}}

	rs, err := New(src, Options{}).Collect(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", rs.Subject)
	assert.Equal(t, []string{"carol", "dave", "bob"}, usernames(rs.Followers))
}

func TestCollectNoDuplicates(t *testing.T) {
	src := &scriptedSource{batches: [][]models.Follower{
		{follower("a", 1), follower("b", 2), follower("a", 9)},
		{follower("b", 2), follower("c", 3)},
		{follower("c", 3), follower("a", 1)},
	}}

	rs, err := New(src, Options{}).Collect(context.Background(), "subject")
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for _, f := range rs.Followers {
		_, dup := seen[f.Username]
		assert.False(t, dup, "duplicate username %q", f.Username)
		seen[f.Username] = struct{}{}
	}
	assert.Len(t, seen, rs.Total(), "set size must equal sequence length")
	assert.Equal(t, 3, rs.Total())

	// First occurrence wins: "a" keeps the count from its first sighting.
	for _, f := range rs.Followers {
		if f.Username == "a" {
			assert.Equal(t, 1, f.FollowerCount)
		}
	}
}

func TestCollectCapIsHard(t *testing.T) {
	// Second batch holds more records than the remaining budget; the excess
	// within the batch must be discarded, not just further requests skipped.
	src := &scriptedSource{batches: [][]models.Follower{
		{follower("u1", 5), follower("u2", 4)},
		{follower("u3", 3), follower("u4", 2), follower("u5", 1)},
		{follower("u6", 0)},
	}}

	rs, err := New(src, Options{Max: 3}).Collect(context.Background(), "subject")
	require.NoError(t, err)

	assert.Equal(t, 3, rs.Total())
	assert.Equal(t, []string{"u1", "u2", "u3"}, usernames(rs.Followers))
	assert.Equal(t, 2, src.calls, "no further batch requested after the cap")
}

func TestCollectCapExactWhenEnoughAvailable(t *testing.T) {
	var batches [][]models.Follower
	for i := 0; i < 5; i++ {
		var b []models.Follower
		for j := 0; j < 10; j++ {
			b = append(b, follower(fmt.Sprintf("user%d_%d", i, j), i*10+j))
		}
		batches = append(batches, b)
	}

	for _, max := range []int{1, 10, 25, 50} {
		src := &scriptedSource{batches: batches}
		rs, err := New(src, Options{Max: max}).Collect(context.Background(), "subject")
		require.NoError(t, err)
		assert.Equal(t, max, rs.Total(), "cap %d", max)
	}
}

func TestCollectCapAboveAvailable(t *testing.T) {
	src := &scriptedSource{batches: [][]models.Follower{
		{follower("a", 1), follower("b", 2)},
	}}

	rs, err := New(src, Options{Max: 100}).Collect(context.Background(), "subject")
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Total())
}

func TestCollectStableDescendingSort(t *testing.T) {
	// Counts [5,5,3] in discovery order: ties keep their original order.
	src := &scriptedSource{batches: [][]models.Follower{
		{follower("first", 5), follower("second", 5), follower("third", 3)},
	}}

	rs, err := New(src, Options{}).Collect(context.Background(), "subject")
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, usernames(rs.Followers))
	for i := 1; i < rs.Total(); i++ {
		assert.GreaterOrEqual(t, rs.Followers[i-1].FollowerCount, rs.Followers[i].FollowerCount)
	}
}

func TestCollectEmptyFirstBatch(t *testing.T) {
	src := &scriptedSource{}

	rs, err := New(src, Options{}).Collect(context.Background(), "subject")
	require.NoError(t, err)
	assert.Equal(t, 0, rs.Total())
	assert.NotNil(t, rs.Followers)
}

func TestCollectPartialResultsOnSourceError(t *testing.T) {
	// Two successful cycles collecting 150 unique records, then a
	// forbidden response: the pipeline keeps those 150, sorted.
	var b1, b2 []models.Follower
	for i := 0; i < 75; i++ {
		b1 = append(b1, follower(fmt.Sprintf("a%03d", i), i))
		b2 = append(b2, follower(fmt.Sprintf("b%03d", i), 1000+i))
	}
	srcErr := errors.New(errors.TypeSource, errors.ReasonForbidden, 403, "follower data requires elevated access")
	src := &scriptedSource{batches: [][]models.Follower{b1, b2}, finalErr: srcErr}

	rs, err := New(src, Options{}).Collect(context.Background(), "subject")
	require.Error(t, err)
	assert.False(t, errors.IsFatal(err))

	assert.Equal(t, 150, rs.Total())
	assert.Equal(t, "b074", rs.Followers[0].Username, "highest count ranks first")
	for i := 1; i < rs.Total(); i++ {
		assert.GreaterOrEqual(t, rs.Followers[i-1].FollowerCount, rs.Followers[i].FollowerCount)
	}
}

func TestCollectRateLimitStopsWithPartial(t *testing.T) {
	srcErr := errors.New(errors.TypeSource, errors.ReasonRateLimited, 429, "rate limit exceeded")
	src := &scriptedSource{
		batches:  [][]models.Follower{{follower("a", 1)}},
		finalErr: srcErr,
	}

	rs, err := New(src, Options{}).Collect(context.Background(), "subject")
	require.Error(t, err)
	e, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ReasonRateLimited, e.Reason)
	assert.Equal(t, 1, rs.Total())
}

func TestCollectDeterministic(t *testing.T) {
	batches := [][]models.Follower{
		{follower("x", 7), follower("y", 7), follower("z", 2)},
		{follower("w", 7), follower("v", 9)},
	}

	run := func() *models.ResultSet {
		src := &scriptedSource{batches: batches}
		rs, err := New(src, Options{}).Collect(context.Background(), "subject")
		require.NoError(t, err)
		return rs
	}

	first, second := run(), run()
	assert.Equal(t, usernames(first.Followers), usernames(second.Followers))
	assert.Equal(t, first.Followers, second.Followers)
}

func TestCollectCancellationKeepsPartial(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	src := &scriptedSource{batches: [][]models.Follower{
		{follower("a", 1)},
		{follower("b", 2)},
		{follower("c", 3)},
	}}

	opts := Options{
		CycleDelay: 50 * time.Millisecond,
		OnProgress: func(total int) {
			if total >= 1 {
				cancel()
			}
		},
	}

	rs, err := New(src, opts).Collect(ctx, "subject")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, rs.Total())
}

func TestCollectSeedResumesAndDedups(t *testing.T) {
	seed := []models.Follower{follower("old1", 40), follower("old2", 10)}
	src := &scriptedSource{batches: [][]models.Follower{
		{follower("old2", 10), follower("new1", 99)},
	}}

	rs, err := New(src, Options{Seed: seed}).Collect(context.Background(), "subject")
	require.NoError(t, err)

	assert.Equal(t, []string{"new1", "old1", "old2"}, usernames(rs.Followers))
}

func TestCollectSkipsEmptyUsernames(t *testing.T) {
	src := &scriptedSource{batches: [][]models.Follower{
		{follower("", 100), follower("real", 1)},
	}}

	rs, err := New(src, Options{}).Collect(context.Background(), "subject")
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, usernames(rs.Followers))
}

func TestCollectProgressCallback(t *testing.T) {
	src := &scriptedSource{batches: [][]models.Follower{
		{follower("a", 1)},
		{follower("b", 2)},
	}}

	var totals []int
	opts := Options{OnProgress: func(total int) { totals = append(totals, total) }}

	_, err := New(src, opts).Collect(context.Background(), "subject")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, totals)
}
