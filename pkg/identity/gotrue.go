package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// GoTrueClient talks to a GoTrue-compatible auth endpoint.
type GoTrueClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewGoTrueClient creates a client for the given base URL (e.g.
// https://xyz.supabase.co/auth/v1) and anon API key.
func NewGoTrueClient(baseURL, apiKey string) *GoTrueClient {
	return &GoTrueClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type recoverRequest struct {
	Email string `json:"email"`
}

type updateUserRequest struct {
	Password string `json:"password"`
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
}

// SignUp registers a new account and returns its session.
func (c *GoTrueClient) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/signup", "", credentialsRequest{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", credentialsRequest{Email: email, Password: password}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ResetPasswordForEmail asks the provider to send a recovery e-mail.
func (c *GoTrueClient) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return c.do(ctx, http.MethodPost, path, "", recoverRequest{Email: email}, nil)
}

// UpdatePassword sets a new password for the user owning the access token.
func (c *GoTrueClient) UpdatePassword(ctx context.Context, accessToken, newPassword string) error {
	return c.do(ctx, http.MethodPut, "/user", accessToken, updateUserRequest{Password: newPassword}, nil)
}

// SignOut revokes the session behind the access token.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

func (c *GoTrueClient) do(ctx context.Context, method, path, accessToken string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal identity request: %w", err)
		}
		reader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode identity response: %w", err)
		}
	}
	return nil
}

func (c *GoTrueClient) mapError(resp *http.Response) error {
	raw, _ := io.ReadAll(resp.Body)

	var apiErr errorResponse
	_ = json.Unmarshal(raw, &apiErr)

	msg := apiErr.ErrorDescription
	if msg == "" {
		msg = apiErr.Msg
	}
	if msg == "" {
		msg = apiErr.Error
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest && msg == "Invalid login credentials":
		return ErrInvalidCredentials
	case resp.StatusCode == http.StatusUnprocessableEntity, resp.StatusCode == http.StatusConflict:
		return ErrUserExists
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrInvalidCredentials
	}

	if msg == "" {
		msg = string(raw)
	}
	return fmt.Errorf("identity provider error (status %d): %s", resp.StatusCode, msg)
}
