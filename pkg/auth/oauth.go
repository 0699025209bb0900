package auth

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// OAuth endpoints and scopes for the user-context authorization flow. The
// followers endpoint only answers to a user token with follows.read.
const (
	AuthorizeURL       = "https://twitter.com/i/oauth2/authorize"
	TokenURL           = "https://api.twitter.com/2/oauth2/token"
	DefaultRedirectURL = "http://localhost:8080/callback"
)

// Scopes requested during authorization.
var Scopes = []string{"tweet.read", "users.read", "follows.read"}

// Authorizer runs the PKCE authorization-code flow on the terminal: it prints
// the authorization URL, waits for the user to paste the redirect URL back,
// and exchanges the code for a user access token.
type Authorizer struct {
	config   *oauth2.Config
	verifier string
	state    string
	in       io.Reader
	out      io.Writer
}

// NewAuthorizer creates an authorizer for the given app credentials. The
// client secret may be empty for public (PKCE-only) clients.
func NewAuthorizer(clientID, clientSecret string) *Authorizer {
	return &Authorizer{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  DefaultRedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   AuthorizeURL,
				TokenURL:  TokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		in:  os.Stdin,
		out: os.Stdout,
	}
}

// SetEndpoints overrides the OAuth endpoints.
func (a *Authorizer) SetEndpoints(authURL, tokenURL string) {
	if authURL != "" {
		a.config.Endpoint.AuthURL = authURL
	}
	if tokenURL != "" {
		a.config.Endpoint.TokenURL = tokenURL
	}
}

// SetIO overrides the prompt reader and writer, used in tests.
func (a *Authorizer) SetIO(in io.Reader, out io.Writer) {
	a.in = in
	a.out = out
}

// AuthCodeURL generates a fresh verifier and state and returns the URL the
// user must open in a browser.
func (a *Authorizer) AuthCodeURL() string {
	a.verifier = oauth2.GenerateVerifier()
	a.state = randomState()
	return a.config.AuthCodeURL(a.state, oauth2.S256ChallengeOption(a.verifier))
}

// Exchange trades an authorization code for a token using the verifier from
// the last AuthCodeURL call.
func (a *Authorizer) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if a.verifier == "" {
		return nil, errors.New("no pending authorization: call AuthCodeURL first")
	}
	token, err := a.config.Exchange(ctx, code, oauth2.VerifierOption(a.verifier))
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return token, nil
}

// Authorize runs the full interactive flow and returns the access token.
func (a *Authorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	authURL := a.AuthCodeURL()

	fmt.Fprintln(a.out, "Open this URL in your browser and authorize the app:")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "  "+authURL)
	fmt.Fprintln(a.out)
	fmt.Fprint(a.out, "Paste the full redirect URL here: ")

	scanner := bufio.NewScanner(a.in)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to read redirect URL: %w", err)
		}
		return nil, errors.New("no redirect URL provided")
	}

	code, err := CodeFromRedirect(strings.TrimSpace(scanner.Text()))
	if err != nil {
		return nil, err
	}

	return a.Exchange(ctx, code)
}

// CodeFromRedirect extracts the authorization code from a pasted redirect
// URL. A bare code pasted directly is accepted too.
func CodeFromRedirect(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("empty redirect URL")
	}

	if !strings.Contains(raw, "://") && !strings.Contains(raw, "?") {
		// Looks like a bare code
		return raw, nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid redirect URL: %w", err)
	}

	query := parsed.Query()
	if errCode := query.Get("error"); errCode != "" {
		desc := query.Get("error_description")
		if desc == "" {
			desc = errCode
		}
		return "", fmt.Errorf("authorization denied: %s", desc)
	}

	code := query.Get("code")
	if code == "" {
		return "", errors.New("redirect URL carries no authorization code")
	}

	return code, nil
}

// randomState generates an unguessable state parameter.
func randomState() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "state"
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
