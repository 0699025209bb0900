package browser

import (
	"context"

	"xfollowers/pkg/models"
)

// Session is a page-level automation session. The four primitives mirror how
// a person would work the page: go somewhere, do something, look at the
// result, and read data off the screen. Act and Observe take plain-language
// instructions so drivers that interpret natural language and drivers that
// pattern-match on the instruction text satisfy the same contract.
type Session interface {
	// Navigate loads a URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Act performs an instruction on the current page ("scroll down",
	// "click the Log in button").
	Act(ctx context.Context, instruction string) error

	// Observe answers a question about the current page state. The answer
	// is free text; callers match on substrings.
	Observe(ctx context.Context, question string) (string, error)

	// Extract reads follower entries visible on the current page.
	Extract(ctx context.Context, instruction string) ([]models.Follower, error)

	// Close tears down the session and its browser resources.
	Close(ctx context.Context) error
}
