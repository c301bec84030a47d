package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/me/romecli/pkg/model"
)

// IssueToken exchanges credentials for a bearer token via POST /auth/token.
// The backend expects the OAuth2 password form fields username/password.
// A 401 maps to ErrInvalidCredentials; the client state is not touched here.
func (c *Client) IssueToken(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	resp, err := c.postForm(ctx, "/auth/token", form)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("issue token: empty access_token in response")
	}
	return body.AccessToken, nil
}

// Register creates a new account via POST /auth/register. A 4xx response
// maps to RegistrationError carrying the backend's detail message.
func (c *Client) Register(ctx context.Context, email, password string) error {
	resp, err := c.postJSON(ctx, "/auth/register", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &RegistrationError{Detail: errorDetail(resp.Body)}
	default:
		return statusError(resp)
	}
}

// Whoami fetches the profile for the held token via GET /auth/me.
// A 401 maps to ErrSessionInvalid.
func (c *Client) Whoami(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.getJSON(ctx, "/auth/me", &user); err != nil {
		return nil, fmt.Errorf("whoami: %w", err)
	}
	return &user, nil
}
