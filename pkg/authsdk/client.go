package authsdk

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// CSRFHeader carries the token from login on state-changing requests.
const CSRFHeader = "X-CSRF-Token"

// Client talks to the authentication service. The session cookie lives in
// the client's cookie jar.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// CSRFToken is the token returned by the last login or registration.
	CSRFToken string
}

// NewClient returns a Client with its own cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Jar:     jar,
			// Logout and gated pages redirect; callers want the response.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}, nil
}

// SessionCookie returns the named cookie the server set for BaseURL, if any.
func (c *Client) SessionCookie(name string) (*http.Cookie, bool) {
	if c.HTTPClient.Jar == nil {
		return nil, false
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, false
	}
	for _, ck := range c.HTTPClient.Jar.Cookies(u) {
		if ck.Name == name {
			return ck, true
		}
	}
	return nil, false
}
