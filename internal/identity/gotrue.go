package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// GoTrueClient talks to a Supabase Auth (GoTrue) instance over its REST API.
type GoTrueClient struct {
	http    *resty.Client
	anonKey string
	now     func() time.Time
}

// Compile-time verification that GoTrueClient implements Provider
var _ Provider = (*GoTrueClient)(nil)

// NewGoTrueClient creates a client for the GoTrue instance at baseURL
// (for example https://<project>.supabase.co).
func NewGoTrueClient(baseURL, anonKey string, timeout time.Duration) (*GoTrueClient, error) {
	if baseURL == "" {
		return nil, ErrNotConfigured
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("apikey", anonKey)

	return &GoTrueClient{
		http:    client,
		anonKey: anonKey,
		now:     time.Now,
	}, nil
}

// tokenResponse is the body of a successful token grant.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

func (t *tokenResponse) toSession(now time.Time) *Session {
	s := &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
	}
	switch {
	case t.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	if t.User != nil {
		s.User = *t.User
	}
	return s
}

type credentialsBody struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// SignInWithPassword exchanges an email and password for a session.
func (c *GoTrueClient) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token",
		map[string]string{"grant_type": "password"},
		credentialsBody{Email: email, Password: password}, "", &out)
	if err != nil {
		return nil, err
	}
	return out.toSession(c.now()), nil
}

// SignUp registers a new account. GoTrue answers with a session when email
// confirmation is disabled and with the bare user otherwise.
func (c *GoTrueClient) SignUp(ctx context.Context, req SignUpRequest) (*SignUpResult, error) {
	query := map[string]string{}
	if req.RedirectTo != "" {
		query["redirect_to"] = req.RedirectTo
	}

	var raw json.RawMessage
	err := c.do(ctx, http.MethodPost, "/auth/v1/signup", query,
		credentialsBody{Email: req.Email, Password: req.Password, Data: req.Metadata}, "", &raw)
	if err != nil {
		return nil, err
	}

	var tok tokenResponse
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode sign-up response: %w", err)
	}
	if tok.AccessToken != "" {
		session := tok.toSession(c.now())
		return &SignUpResult{User: session.User, Session: session}, nil
	}

	var user User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("failed to decode sign-up user: %w", err)
	}
	return &SignUpResult{User: user}, nil
}

// SignOut revokes the session behind accessToken.
func (c *GoTrueClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, accessToken, nil)
}

// GetUser returns the account behind accessToken.
func (c *GoTrueClient) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, accessToken, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges a refresh token for a new session.
func (c *GoTrueClient) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	var out tokenResponse
	err := c.do(ctx, http.MethodPost, "/auth/v1/token",
		map[string]string{"grant_type": "refresh_token"},
		refreshBody{RefreshToken: refreshToken}, "", &out)
	if err != nil {
		return nil, err
	}
	return out.toSession(c.now()), nil
}

// do sends one request. Calls without a user token authenticate with the anon key.
func (c *GoTrueClient) do(ctx context.Context, method, path string, query map[string]string, body any, token string, out any) error {
	if token == "" {
		token = c.anonKey
	}

	var errBody apiErrorBody
	req := c.http.R().
		SetContext(ctx).
		SetError(&errBody)
	if token != "" {
		req.SetAuthToken(token)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("identity provider request failed: %w", err)
	}
	if resp.IsError() {
		return errBody.toAPIError(resp.StatusCode())
	}
	return nil
}
