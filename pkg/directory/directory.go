// Package directory is a thin client for the remote user directory. The
// ledger uses it opportunistically to resolve a borrower's account by phone
// number; lookup or registration failures must never block transaction
// creation.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrUserNotFound indicates the directory has no account for the phone number.
var ErrUserNotFound = errors.New("user not found in directory")

// User is a directory account as returned by the remote service.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// Lookup is the subset of directory operations the ledger depends on.
type Lookup interface {
	LookupByPhone(ctx context.Context, phone string) (*User, error)
	Register(ctx context.Context, user *User) (*User, error)
}

// Client talks to the remote user directory over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a directory client. The timeout bounds every request so a
// slow directory cannot stall transaction creation.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// LookupByPhone fetches the directory account registered under the phone
// number. Returns ErrUserNotFound when no account exists.
func (c *Client) LookupByPhone(ctx context.Context, phone string) (*User, error) {
	endpoint := fmt.Sprintf("%s/users?phone=%s", c.baseURL, url.QueryEscape(phone))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory lookup failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, fmt.Errorf("failed to decode directory response: %w", err)
		}
		return &user, nil
	case http.StatusNotFound:
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("directory lookup returned status %d", resp.StatusCode)
	}
}

// Register creates a directory account for an unregistered borrower and
// returns the account with its assigned id.
func (c *Client) Register(ctx context.Context, user *User) (*User, error) {
	body, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("failed to encode registration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build registration request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directory registration failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory registration returned status %d", resp.StatusCode)
	}

	var created User
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode registration response: %w", err)
	}
	return &created, nil
}
