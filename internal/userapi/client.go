// Package userapi is an HTTP client for a remote user API that owns the
// user entity carrying the preference blob.
//
// The API speaks a users envelope: GET {base}/users/me/ returns the
// authenticated user and PUT {base}/users/{id}/ replaces its mutable
// fields, both wrapped as {"users": [{...}]}. The mutator refreshes the
// server-side representation, so a changed accessibility blob is visible
// to the next CurrentUser call.
package userapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hoangminh/herald/internal/models"
)

// Client calls the remote user API. It implements prefs.UserSource.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewClient creates a Client for the given API base URL. The API key, when
// non-empty, is sent as a bearer token on every request.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// userEnvelope is the wire shape wrapping users in requests and responses.
type userEnvelope struct {
	Users []*models.User `json:"users"`
}

// CurrentUser fetches the authenticated user. An empty users envelope means
// no user is available yet and yields (nil, nil).
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	env, err := c.do(ctx, http.MethodGet, "/users/me/", nil)
	if err != nil {
		return nil, err
	}
	if len(env.Users) == 0 {
		return nil, nil
	}
	return env.Users[0], nil
}

// UpdateUser replaces the user's mutable fields and returns the persisted
// entity as reported by the API.
func (c *Client) UpdateUser(ctx context.Context, user *models.User) (*models.User, error) {
	body, err := json.Marshal(userEnvelope{Users: []*models.User{user}})
	if err != nil {
		return nil, fmt.Errorf("encoding user update: %w", err)
	}

	env, err := c.do(ctx, http.MethodPut, "/users/"+user.ID+"/", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if len(env.Users) == 0 {
		return nil, fmt.Errorf("user API returned an empty users envelope")
	}
	return env.Users[0], nil
}

// do executes one API call and decodes the users envelope.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*userEnvelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building user API request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling user API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user API returned status %d for %s %s", resp.StatusCode, method, path)
	}

	var env userEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decoding user API response: %w", err)
	}
	return &env, nil
}
