package browser

import (
	"context"
	"fmt"
	"strings"

	"xfollowers/pkg/collector"
	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
)

const (
	siteBaseURL = "https://twitter.com"
	loginURL    = siteBaseURL + "/i/flow/login"

	// DefaultMaxScrolls bounds the scroll loop so an endless feed can't
	// trap the collection.
	DefaultMaxScrolls = 50
)

// Login signs the session into the site. A failed login is an auth error.
func Login(ctx context.Context, session Session, username, password string) error {
	log := logger.GetLogger()
	log.InfoWithFields("logging in", map[string]interface{}{
		"username": username,
	})

	if err := session.Navigate(ctx, loginURL); err != nil {
		return err
	}

	steps := []string{
		fmt.Sprintf(`type %q into the username field`, username),
		"click the Next button",
		fmt.Sprintf(`type %q into the password field`, password),
		"click the Log in button",
	}
	for _, step := range steps {
		if err := session.Act(ctx, step); err != nil {
			return errors.Wrap(errors.TypeAuth, errors.ReasonLoginFailed, err, "login sequence failed")
		}
	}

	answer, err := session.Observe(ctx, "Are we logged in, with the home timeline visible?")
	if err != nil {
		return errors.Wrap(errors.TypeAuth, errors.ReasonLoginFailed, err, "could not verify login")
	}

	lower := strings.ToLower(answer)
	if !strings.Contains(lower, "yes") && !strings.Contains(lower, "logged in") {
		return errors.New(errors.TypeAuth, errors.ReasonLoginFailed, 0, "login failed: %s", answer)
	}

	log.Info("login verified")
	return nil
}

// ScrollSource adapts the followers page to the collector's BatchSource
// contract: each batch is one extract-then-scroll cycle.
type ScrollSource struct {
	session    Session
	subject    string
	maxScrolls int
	cycles     int
	done       bool
	log        logger.Logger
}

// NewScrollSource opens the subject's followers page and verifies it is
// readable. A missing profile is a navigation error; a login wall or a
// protected list is reported as an unavailable source.
func NewScrollSource(ctx context.Context, session Session, handle string, maxScrolls int) (*ScrollSource, error) {
	if maxScrolls <= 0 {
		maxScrolls = DefaultMaxScrolls
	}

	log := logger.GetLogger()

	url := fmt.Sprintf("%s/%s/followers", siteBaseURL, handle)
	if err := session.Navigate(ctx, url); err != nil {
		return nil, err
	}

	answer, err := session.Observe(ctx, "Describe the state of this followers page. Is the list visible, is the profile missing, or is something blocking it?")
	if err != nil {
		return nil, errors.Wrap(errors.TypeNavigation, errors.ReasonTransient, err, "could not inspect followers page")
	}

	lower := strings.ToLower(answer)
	switch {
	case strings.Contains(lower, "not found") || strings.Contains(lower, "doesn't exist"):
		return nil, errors.New(errors.TypeNavigation, errors.ReasonNotFound, 0, "profile @%s not found", handle)
	case strings.Contains(lower, "login") || strings.Contains(lower, "sign in") || strings.Contains(lower, "not available"):
		return nil, errors.New(errors.TypeNavigation, errors.ReasonGated, 0, "followers of @%s are not accessible: %s", handle, answer)
	}

	log.InfoWithFields("followers page open", map[string]interface{}{
		"subject": handle,
	})

	return &ScrollSource{
		session:    session,
		subject:    handle,
		maxScrolls: maxScrolls,
		log:        log,
	}, nil
}

// NextBatch extracts the follower entries currently on screen, then scrolls
// to surface the next ones. The end of the list, the scroll cap, and a
// failed end-of-list check or scroll all end the collection without
// discarding what this cycle read; only a failed extraction surfaces as an
// error.
func (s *ScrollSource) NextBatch(ctx context.Context) ([]models.Follower, bool, error) {
	if s.done {
		return nil, false, nil
	}

	batch, err := s.session.Extract(ctx, "Extract every follower entry visible in the list: username, display name, bio, follower count, following count, verified status.")
	if err != nil {
		s.done = true
		return nil, false, err
	}

	s.cycles++
	if s.cycles >= s.maxScrolls {
		s.log.WarnWithFields("scroll limit reached", map[string]interface{}{
			"subject": s.subject,
			"cycles":  s.cycles,
		})
		s.done = true
		return batch, false, nil
	}

	answer, err := s.session.Observe(ctx, "Have we reached the end of the followers list?")
	if err != nil {
		// Keep this cycle's entries; the pipeline reports a partial result
		s.log.WithError(err).Warn("end-of-list check failed, stopping with partial list")
		s.done = true
		return batch, false, nil
	}
	lower := strings.ToLower(answer)
	if strings.Contains(lower, "end") || strings.Contains(lower, "no more") {
		s.log.InfoWithFields("end of followers list", map[string]interface{}{
			"subject": s.subject,
			"cycles":  s.cycles,
		})
		s.done = true
		return batch, false, nil
	}

	if err := s.session.Act(ctx, "scroll down to load more followers"); err != nil {
		// Keep this cycle's entries; the pipeline reports a partial result
		s.log.WithError(err).Warn("scroll failed, stopping with partial list")
		s.done = true
		return batch, false, nil
	}

	return batch, true, nil
}

// Cycles returns how many extract-scroll cycles have run.
func (s *ScrollSource) Cycles() int {
	return s.cycles
}

var _ collector.BatchSource = (*ScrollSource)(nil)
