package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
	"xfollowers/pkg/ratelimit"
)

// FollowersPage is one normalized page of followers.
type FollowersPage struct {
	Records    []models.Follower
	NextCursor string
}

// Client is an X API v2 client. It authenticates with the user access token
// when one is set, falling back to the app bearer token.
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	baseURL     string
	bearerToken string
	accessToken string
	pageSize    int
	limiter     ratelimit.Limiter
	maxRetries  int
	logger      logger.Logger
}

// NewClient creates an API client. limiter may be nil to disable throttling.
func NewClient(bearerToken string, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "xfollowers/1.0",
		},
		baseURL:     BaseURL,
		bearerToken: bearerToken,
		pageSize:    DefaultPageSize,
		limiter:     limiter,
		maxRetries:  2,
		logger:      log,
	}
}

// SetBaseURL overrides the API base URL.
func (c *Client) SetBaseURL(base string) {
	if base != "" {
		c.baseURL = strings.TrimSuffix(base, "/")
	}
}

// SetAccessToken installs the user token obtained from the authorization
// exchange. The followers endpoint requires it.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// SetPageSize overrides the followers page size.
func (c *Client) SetPageSize(size int) {
	if size > 0 {
		c.pageSize = size
	}
}

// doRequest performs one HTTP request with auth and default headers.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	token := c.accessToken
	if token == "" {
		token = c.bearerToken
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if c.limiter != nil {
		if !c.limiter.Allow() {
			logger.LogRateLimit(req.URL.Path, 60)
			c.limiter.Wait()
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "network error")
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSON performs a GET with bounded retries on network failures and 5xx
// responses, then decodes the body into target. Non-2xx responses after the
// last attempt are returned raw so callers can classify per endpoint.
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) (int, []byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WarnWithFields("retrying request", map[string]interface{}{
				"url":     url,
				"attempt": attempt,
				"error":   lastErr.Error(),
			})
			select {
			case <-ctx.Done():
				return 0, nil, ctx.Err()
			case <-time.After(time.Second * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.doRequest(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = errors.Wrap(errors.TypeSource, errors.ReasonTransient, readErr, "failed to read response body")
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = errors.New(errors.TypeSource, errors.ReasonTransient, resp.StatusCode, "server returned status %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, body, nil
		}

		if err := json.Unmarshal(body, target); err != nil {
			preview := string(body)
			if len(preview) > 200 {
				preview = preview[:200] + "..."
			}
			c.logger.ErrorWithFields("failed to parse response", map[string]interface{}{
				"url":          url,
				"error":        err.Error(),
				"body_preview": preview,
			})
			return resp.StatusCode, body, errors.Wrap(errors.TypeSource, errors.ReasonUnknown, err, "failed to parse response")
		}

		return resp.StatusCode, body, nil
	}

	return 0, nil, lastErr
}

// parseErrorBody decodes an API error body, tolerating junk.
func parseErrorBody(body []byte) ErrorBody {
	var eb ErrorBody
	_ = json.Unmarshal(body, &eb)
	return eb
}

// LookupUser resolves a handle to the internal account identifier. Failures
// are lookup errors: fatal, with the specific reason surfaced.
func (c *Client) LookupUser(ctx context.Context, handle string) (string, error) {
	url := UserByUsernameURL(c.baseURL, handle)

	c.logger.DebugWithFields("resolving handle", map[string]interface{}{
		"handle": handle,
	})

	var result UserLookupResponse
	status, body, err := c.getJSON(ctx, url, &result)
	if err != nil {
		if e, ok := errors.As(err); ok {
			return "", &errors.Error{Type: errors.TypeLookup, Reason: e.Reason, Message: e.Message, Code: e.Code, Err: e.Err}
		}
		return "", err
	}

	if status != http.StatusOK {
		eb := parseErrorBody(body)
		reason := errors.ReasonFromStatus(status)
		detail := eb.Detail
		if detail == "" {
			detail = fmt.Sprintf("lookup of @%s failed", handle)
		}
		return "", errors.New(errors.TypeLookup, reason, status, "%s", detail)
	}

	// The endpoint can answer 200 with an errors array instead of data.
	if result.Data == nil || result.Data.ID == "" {
		detail := fmt.Sprintf("user @%s not found", handle)
		if len(result.Errors) > 0 && result.Errors[0].Detail != "" {
			detail = result.Errors[0].Detail
		}
		return "", errors.New(errors.TypeLookup, errors.ReasonNotFound, status, "%s", detail)
	}

	c.logger.InfoWithFields("handle resolved", map[string]interface{}{
		"handle":  handle,
		"user_id": result.Data.ID,
	})

	return result.Data.ID, nil
}

// FollowersPage fetches one page of followers. Failures are source errors:
// non-fatal, classified by status and error body so the pipeline can report
// the sub-reason and keep its partial results.
func (c *Client) FollowersPage(ctx context.Context, userID, cursor string) (*FollowersPage, error) {
	url := FollowersURL(c.baseURL, userID, cursor, c.pageSize)

	c.logger.DebugWithFields("fetching followers page", map[string]interface{}{
		"user_id": userID,
		"cursor":  cursor,
	})

	var result FollowersResponse
	status, body, err := c.getJSON(ctx, url, &result)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, classifyPageError(status, body)
	}

	page := &FollowersPage{
		Records:    make([]models.Follower, 0, len(result.Data)),
		NextCursor: result.Meta.NextToken,
	}
	for _, obj := range result.Data {
		page.Records = append(page.Records, normalizeFollower(obj))
	}

	return page, nil
}

// classifyPageError maps a non-success followers response to the error
// taxonomy. The "client-not-enrolled" reason marks the access-tier branch:
// follower data is not available on the free tiers.
func classifyPageError(status int, body []byte) error {
	eb := parseErrorBody(body)
	reason := errors.ReasonFromStatus(status)
	detail := eb.Detail
	if detail == "" {
		detail = eb.Title
	}
	if detail == "" {
		detail = fmt.Sprintf("followers request failed with status %d", status)
	}

	if status == http.StatusForbidden && strings.Contains(eb.Reason, "client-not-enrolled") {
		reason = errors.ReasonTierInsufficient
		detail = "follower data requires an elevated API access tier"
	}

	return errors.New(errors.TypeSource, reason, status, "%s", detail)
}

// normalizeFollower maps an API follower object to the domain record.
// A missing public_metrics block defaults both counts to zero.
func normalizeFollower(obj FollowerObject) models.Follower {
	f := models.Follower{
		Username:    obj.Username,
		DisplayName: obj.Name,
		Bio:         obj.Description,
		Verified:    obj.Verified,
	}
	if obj.PublicMetrics != nil {
		f.FollowerCount = obj.PublicMetrics.FollowersCount
		f.FollowingCount = obj.PublicMetrics.FollowingCount
	}
	return f
}
