package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"xfollowers/pkg/errors"
	"xfollowers/pkg/logger"
	"xfollowers/pkg/models"
)

// LocalSession drives a locally installed Chrome through the DevTools
// protocol. It satisfies the same contract as the hosted driver by
// pattern-matching on the instruction text instead of interpreting it with a
// model, so the rest of the pipeline cannot tell the two apart.
type LocalSession struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	log         logger.Logger
}

// NewLocalSession starts a local browser.
func NewLocalSession(headless bool, log logger.Logger) (*LocalSession, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx)

	// Starting the browser is deferred until the first action; force it now
	// so a missing binary fails here rather than mid-collection.
	if err := chromedp.Run(ctx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, errors.Wrap(errors.TypeNavigation, errors.ReasonTransient, err, "failed to start local browser")
	}

	log.Info("local browser started")

	return &LocalSession{
		ctx:         ctx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		log:         log,
	}, nil
}

// Navigate loads a URL and waits for the page body.
func (s *LocalSession) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.withDeadline(ctx, 45*time.Second)
	defer cancel()

	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return errors.Wrap(errors.TypeNavigation, errors.ReasonTransient, err, fmt.Sprintf("failed to navigate to %s", url))
	}
	return nil
}

// Act maps a plain-language instruction onto concrete page actions. Only the
// instructions the collection flow issues are understood.
func (s *LocalSession) Act(ctx context.Context, instruction string) error {
	runCtx, cancel := s.withDeadline(ctx, 30*time.Second)
	defer cancel()

	lower := strings.ToLower(instruction)

	var action chromedp.Action
	switch {
	case strings.Contains(lower, "scroll"):
		action = chromedp.Evaluate(`window.scrollBy(0, window.innerHeight * 2);`, nil)

	case strings.Contains(lower, "username"):
		action = chromedp.Tasks{
			chromedp.WaitVisible(`input[autocomplete="username"]`, chromedp.ByQuery),
			chromedp.SendKeys(`input[autocomplete="username"]`, textToType(instruction), chromedp.ByQuery),
		}

	case strings.Contains(lower, "password"):
		action = chromedp.Tasks{
			chromedp.WaitVisible(`input[name="password"]`, chromedp.ByQuery),
			chromedp.SendKeys(`input[name="password"]`, textToType(instruction), chromedp.ByQuery),
		}

	case strings.Contains(lower, "next"):
		action = clickByText("Next")

	case strings.Contains(lower, "log in"), strings.Contains(lower, "login"):
		action = clickByText("Log in")

	default:
		return errors.New(errors.TypeSource, errors.ReasonUnknown, 0, "unsupported instruction: %s", instruction)
	}

	if err := chromedp.Run(runCtx, action, chromedp.Sleep(time.Second)); err != nil {
		return errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "action failed: "+instruction)
	}
	return nil
}

// Observe answers the page-state questions the collection flow asks by
// probing the DOM, phrased so the caller's substring checks match.
func (s *LocalSession) Observe(ctx context.Context, question string) (string, error) {
	runCtx, cancel := s.withDeadline(ctx, 30*time.Second)
	defer cancel()

	lower := strings.ToLower(question)

	switch {
	case strings.Contains(lower, "end of"):
		var atBottom bool
		err := chromedp.Run(runCtx, chromedp.Evaluate(
			`window.innerHeight + window.scrollY >= document.body.scrollHeight - 10`, &atBottom))
		if err != nil {
			return "", errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "observation failed")
		}
		if atBottom {
			return "yes, the end of the list has been reached", nil
		}
		return "no, there is more content below", nil

	case strings.Contains(lower, "logged in"):
		var loggedIn bool
		err := chromedp.Run(runCtx, chromedp.Evaluate(
			`document.querySelector('[data-testid="SideNav_AccountSwitcher_Button"]') !== null ||
			 document.querySelector('[data-testid="AppTabBar_Home_Link"]') !== null`, &loggedIn))
		if err != nil {
			return "", errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "observation failed")
		}
		if loggedIn {
			return "yes, logged in", nil
		}
		return "no, still on the login page", nil

	default:
		// Describe the page so the caller's profile-state checks can match
		var bodyText string
		err := chromedp.Run(runCtx, chromedp.Evaluate(
			`document.body.innerText.slice(0, 2000)`, &bodyText))
		if err != nil {
			return "", errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "observation failed")
		}
		return describePage(bodyText), nil
	}
}

// Extract reads the follower cells visible in the DOM.
func (s *LocalSession) Extract(ctx context.Context, instruction string) ([]models.Follower, error) {
	runCtx, cancel := s.withDeadline(ctx, 30*time.Second)
	defer cancel()

	var profiles []extractedProfile
	err := chromedp.Run(runCtx, chromedp.Evaluate(`
		Array.from(document.querySelectorAll('[data-testid="UserCell"]')).map(cell => {
			const links = cell.querySelectorAll('a[href^="/"]');
			let username = '';
			for (const link of links) {
				const href = link.getAttribute('href') || '';
				if (/^\/[A-Za-z0-9_]+$/.test(href)) { username = href.slice(1); break; }
			}
			const spans = Array.from(cell.querySelectorAll('span')).map(s => s.innerText.trim()).filter(Boolean);
			const bioEl = cell.querySelector('[dir="auto"]:last-child');
			return {
				username: username,
				display_name: spans.length > 0 ? spans[0] : '',
				bio: bioEl ? bioEl.innerText.trim() : '',
				follower_count: 0,
				following_count: 0,
				verified: cell.querySelector('svg[aria-label="Verified account"]') !== null
			};
		}).filter(p => p.username !== '')
	`, &profiles))
	if err != nil {
		return nil, errors.Wrap(errors.TypeSource, errors.ReasonTransient, err, "extraction failed")
	}

	followers := make([]models.Follower, 0, len(profiles))
	for _, p := range profiles {
		followers = append(followers, p.toFollower())
	}
	return followers, nil
}

// Close shuts the browser down.
func (s *LocalSession) Close(ctx context.Context) error {
	s.cancelCtx()
	s.cancelAlloc()
	s.log.Debug("local browser closed")
	return nil
}

// withDeadline bounds a browser operation while honoring the caller's
// cancellation. chromedp actions run on the browser's own context, so the
// caller's ctx is watched separately.
func (s *LocalSession) withDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.ctx, d)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// textToType pulls the quoted value out of an instruction like
// `type "name" into the username field`.
func textToType(instruction string) string {
	start := strings.Index(instruction, `"`)
	if start < 0 {
		return ""
	}
	rest := instruction[start+1:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return rest
	}
	return rest[:end]
}

// clickByText clicks the first button or link whose text matches.
func clickByText(label string) chromedp.Action {
	script := fmt.Sprintf(`
		(() => {
			const candidates = document.querySelectorAll('div[role="button"], button, a[role="link"]');
			for (const el of candidates) {
				if (el.innerText.trim() === %q) { el.click(); return true; }
			}
			return false;
		})()
	`, label)
	return chromedp.Evaluate(script, nil)
}

// describePage summarizes the page body in terms the profile-state checks
// understand.
func describePage(bodyText string) string {
	lower := strings.ToLower(bodyText)

	switch {
	case strings.Contains(lower, "this account doesn't exist") ||
		strings.Contains(lower, "try searching for another"):
		return "the profile was not found"
	case strings.Contains(lower, "log in") || strings.Contains(lower, "sign in"):
		return "a login prompt is blocking the page"
	case strings.Contains(lower, "caution: this account is temporarily restricted") ||
		strings.Contains(lower, "these posts are protected"):
		return "the account's follower list is not available"
	default:
		return "the followers list is visible"
	}
}

var _ Session = (*LocalSession)(nil)
