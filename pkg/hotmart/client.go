// Package hotmart implements the payments API client used to confirm whether
// an e-mail holds an active subscription.
package hotmart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrUserNotFound is returned when the payments API has no account for the
// e-mail being checked.
var ErrUserNotFound = fmt.Errorf("hotmart: user not found")

// Client talks to the Hotmart payments API with a cached OAuth
// client-credentials token.
type Client struct {
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	http         *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	now func() time.Time
}

// NewClient creates a payments API client. baseURL points at the payments
// API root, tokenURL at the OAuth token endpoint.
func NewClient(baseURL, tokenURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		http:         &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
}

// getAccessToken returns the cached token or fetches a fresh one. Tokens are
// treated as expired one minute early so in-flight requests never race the
// real expiry.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("hotmart token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("hotmart token request failed (status %d)", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("decode hotmart token: %w", err)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(token.ExpiresIn)*time.Second - time.Minute)

	return c.accessToken, nil
}

// ActiveSubscriptions returns the subscriptions for the e-mail that are
// ACTIVE and whose next payment date is still in the future.
func (c *Client) ActiveSubscriptions(ctx context.Context, email string) ([]Subscription, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	user, err := c.userByEmail(ctx, token, email)
	if err != nil {
		return nil, err
	}

	subs, err := c.subscriptions(ctx, token, user.ID)
	if err != nil {
		return nil, err
	}

	now := c.now()
	active := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		if sub.Status == "ACTIVE" && sub.NextPaymentDate.After(now) {
			active = append(active, sub)
		}
	}
	return active, nil
}

func (c *Client) userByEmail(ctx context.Context, token, email string) (*userResponse, error) {
	endpoint := fmt.Sprintf("%s/users/email/%s", c.baseURL, url.PathEscape(email))

	var user userResponse
	if err := c.get(ctx, token, endpoint, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) subscriptions(ctx context.Context, token, userID string) ([]Subscription, error) {
	endpoint := fmt.Sprintf("%s/users/%s/subscriptions", c.baseURL, url.PathEscape(userID))

	var out subscriptionsResponse
	if err := c.get(ctx, token, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) get(ctx context.Context, token, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("hotmart request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("hotmart request failed (status %d)", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
