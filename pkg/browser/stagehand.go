package browser

import (
	"bytes"
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
)

// DefaultRemoteBaseURL is the hosted automation service endpoint.
const DefaultRemoteBaseURL = "https://api.stagehand.browserbase.com/v1"

// RemoteConfig configures a hosted browser session.
type RemoteConfig struct {
	BaseURL     string
	APIKey      string
	ProjectID   string
	ModelAPIKey string
	ModelName   string
}

// RemoteSession drives a cloud browser through the hosted automation API.
// The service runs the actual browser and a language model interprets the
// act/observe/extract instructions page-side.
type RemoteSession struct {
	httpClient *http.Client
	baseURL    string
	headers    map[string]string
	sessionID  string
	log        logger.Logger
}

// NewRemoteSession creates a session on the hosted service.
func NewRemoteSession(ctx context.Context, cfg RemoteConfig, log logger.Logger) (*RemoteSession, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultRemoteBaseURL
	}

	s := &RemoteSession{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		headers: map[string]string{
			"Content-Type":    "application/json",
			"x-bb-api-key":    cfg.APIKey,
			"x-model-api-key": cfg.ModelAPIKey,
		},
		log: log,
	}

	var created struct {
		SessionID string `json:"sessionId"`
	}
	err := s.post(ctx, "/sessions", map[string]string{
		"projectId": cfg.ProjectID,
		"modelName": cfg.ModelName,
	}, &created)
	if err != nil {
		return nil, errors.Wrap(errors.TypeNavigation, errors.ReasonTransient, err, "failed to start browser session")
	}
	if created.SessionID == "" {
		return nil, errors.New(errors.TypeNavigation, errors.ReasonUnknown, 0, "browser service returned no session id")
	}
	s.sessionID = created.SessionID

	s.log.InfoWithFields("browser session started", map[string]interface{}{
		"session_id": s.sessionID,
	})

	return s, nil
}

// Navigate loads a URL in the remote browser.
func (s *RemoteSession) Navigate(ctx context.Context, url string) error {
	err := s.post(ctx, s.path("navigate"), map[string]string{"url": url}, nil)
	if err != nil {
		return errors.Wrap(errors.TypeNavigation, errors.ReasonTransient, err, fmt.Sprintf("failed to navigate to %s", url))
	}
	return nil
}

// Act performs a plain-language instruction on the current page.
func (s *RemoteSession) Act(ctx context.Context, instruction string) error {
	var result struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	err := s.post(ctx, s.path("act"), map[string]string{"action": instruction}, &result)
	if err != nil {
		return errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "action failed")
	}
	if !result.Success {
		msg := result.Message
		if msg == "" {
			msg = instruction
		}
		return errors.New(errors.TypeSource, errors.ReasonTransient, 0, "action failed: %s", msg)
	}
	return nil
}

// Observe asks a question about the current page and returns the answer.
func (s *RemoteSession) Observe(ctx context.Context, question string) (string, error) {
	var result struct {
		Observation string `json:"observation"`
	}
	err := s.post(ctx, s.path("observe"), map[string]string{"instruction": question}, &result)
	if err != nil {
		return "", errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "observation failed")
	}
	return result.Observation, nil
}

// Extract reads the follower entries currently visible on the page.
func (s *RemoteSession) Extract(ctx context.Context, instruction string) ([]models.Follower, error) {
	var result struct {
		Followers []extractedProfile `json:"followers"`
	}
	err := s.post(ctx, s.path("extract"), map[string]interface{}{
		"instruction": instruction,
		"schema":      extractSchema,
	}, &result)
	if err != nil {
		return nil, errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "extraction failed")
	}

	followers := make([]models.Follower, 0, len(result.Followers))
	for _, p := range result.Followers {
		followers = append(followers, p.toFollower())
	}
	return followers, nil
}

// Close tears down the remote session.
func (s *RemoteSession) Close(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.baseURL+"/sessions/"+s.sessionID, nil)
	if err != nil {
		return err
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	s.log.Debug("browser session closed")
	return nil
}

func (s *RemoteSession) path(op string) string {
	return "/sessions/" + s.sessionID + "/" + op
}

// post sends a JSON request and decodes the response into target when one is
// given. Non-2xx statuses are returned as errors with a body preview.
func (s *RemoteSession) post(ctx context.Context, path string, payload interface{}, target interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview := string(respBody)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return fmt.Errorf("browser service returned status %d: %s", resp.StatusCode, preview)
	}

	if target != nil {
		if err := json.Unmarshal(respBody, target); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// extractedProfile is the wire shape of a follower entry coming back from
// extraction. Counts may be missing when the page doesn't show them.
type extractedProfile struct {
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	Bio            string `json:"bio"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
	Verified       bool   `json:"verified"`
}

func (p extractedProfile) toFollower() models.Follower {
	return models.Follower{
		Username:       strings.TrimPrefix(p.Username, "@"),
		DisplayName:    p.DisplayName,
		Bio:            p.Bio,
		FollowerCount:  p.FollowerCount,
		FollowingCount: p.FollowingCount,
		Verified:       p.Verified,
	}
}

// extractSchema describes the entry shape the extraction model should fill.
var extractSchema = map[string]interface{}{
	"followers": []map[string]string{{
		"username":        "string",
		"display_name":    "string",
		"bio":             "string",
		"follower_count":  "number",
		"following_count": "number",
		"verified":        "boolean",
	}},
}

var _ Session = (*RemoteSession)(nil)
