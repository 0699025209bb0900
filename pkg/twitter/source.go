package twitter

import (
	"context"

	"xfollowers/pkg/collector"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
)

// PageSource adapts the paginated followers endpoint to the collector's
// BatchSource contract. It owns the continuation cursor.
type PageSource struct {
	client *Client
	userID string
	cursor string
	done   bool
	log    logger.Logger
}

// SourceOption configures a PageSource.
type SourceOption func(*PageSource)

// WithCursor starts collection from a saved continuation token, used when
// resuming from a checkpoint.
func WithCursor(cursor string) SourceOption {
	return func(s *PageSource) {
		s.cursor = cursor
	}
}

// NewPageSource resolves the subject handle and returns a source positioned
// at the first (or resumed) page. A failed resolution is a lookup error.
func NewPageSource(ctx context.Context, client *Client, handle string, opts ...SourceOption) (*PageSource, error) {
	userID, err := client.LookupUser(ctx, handle)
	if err != nil {
		return nil, err
	}

	s := &PageSource{
		client: client,
		userID: userID,
		log:    logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NextBatch fetches the next followers page. The continuation token in the
// response decides hasMore; its absence means the end of the list.
func (s *PageSource) NextBatch(ctx context.Context) ([]models.Follower, bool, error) {
	if s.done {
		return nil, false, nil
	}

	page, err := s.client.FollowersPage(ctx, s.userID, s.cursor)
	if err != nil {
		return nil, false, err
	}

	s.cursor = page.NextCursor
	if s.cursor == "" {
		s.done = true
	}

	return page.Records, !s.done, nil
}

// Cursor returns the current continuation token, empty at the end of the
// list. Persisted by the checkpoint on early stops.
func (s *PageSource) Cursor() string {
	return s.cursor
}

// UserID returns the resolved account identifier.
func (s *PageSource) UserID() string {
	return s.userID
}

var _ collector.BatchSource = (*PageSource)(nil)
