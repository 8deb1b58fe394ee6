// Package forgejo talks to the Forgejo (and Gitea compatible) REST API of the destination
// forge.
package forgejo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jlucaspains/gh2forgejo/internal/config"
	"github.com/jlucaspains/gh2forgejo/internal/models"
)

const (
	migratePath = "/api/v1/repos/migrate"
	userPath    = "/api/v1/user"

	// repositoryPageLimit is the page size used when listing destination repositories.
	repositoryPageLimit = 50

	// maxResponseBytes bounds how much of a response body is kept in memory.
	maxResponseBytes = 1 << 20
)

// Response is the raw result of a write request.
type Response struct {
	StatusCode int
	Body       []byte
}

// APIError is the JSON error document returned by Forgejo.
type APIError struct {
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(cfg *config.ForgejoConfig, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("forgejo URL is required")
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("forgejo token is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	// Forgejo expects "Authorization: token <value>"; oauth2 uses TokenType verbatim for
	// types other than bearer, mac and basic.
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "token"})

	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{
			Transport: &oauth2.Transport{Source: ts},
			Timeout:   timeout,
		},
		logger: logger,
	}, nil
}

// TestConnection resolves the authenticated user and returns its login.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	c.logger.Info("Testing Forgejo connection...")

	var user struct {
		Login string `json:"login"`
	}
	if err := c.getJSON(ctx, userPath, nil, &user); err != nil {
		return "", fmt.Errorf("connection test failed: %w", err)
	}

	c.logger.Info("Forgejo connection successful", zap.String("login", user.Login))
	return user.Login, nil
}

// ListRepositoryNames returns the names of all repositories owned by owner, following
// pagination until an empty page.
func (c *Client) ListRepositoryNames(ctx context.Context, owner string) ([]string, error) {
	var names []string
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("page", fmt.Sprint(page))
		query.Set("limit", fmt.Sprint(repositoryPageLimit))

		var repos []struct {
			Name string `json:"name"`
		}
		path := fmt.Sprintf("/api/v1/users/%s/repos", url.PathEscape(owner))
		if err := c.getJSON(ctx, path, query, &repos); err != nil {
			return nil, fmt.Errorf("failed to list repositories of %s (page %d): %w", owner, page, err)
		}

		if len(repos) == 0 {
			return names, nil
		}
		for _, repo := range repos {
			names = append(names, repo.Name)
		}
	}
}

// Migrate submits a migration request. The returned error covers only encoding and
// transport failures; any HTTP status, including errors, is reported through Response.
func (c *Client) Migrate(ctx context.Context, request *models.MigrationRequest) (*Response, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode migration request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+migratePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create migration request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("Submitting migration", zap.String("repository", request.RepoName), zap.String("service", string(request.Service())))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("migration request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logger.Warn("Failed to read migration response body", zap.Error(err))
	}

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		message := ErrorMessage(body)
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d from %s: %s", resp.StatusCode, path, message)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

// ErrorMessage extracts the message of a Forgejo JSON error body. It returns an empty
// string when the body is not such a document.
func ErrorMessage(body []byte) string {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return ""
	}
	return strings.TrimSpace(apiErr.Message)
}
