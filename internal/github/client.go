package github

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v74/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jlucaspains/gh2forgejo/internal/config"
	"github.com/jlucaspains/gh2forgejo/internal/models"
)

// PageSize is the number of repositories requested per listing call.
const PageSize = 100

type Client struct {
	client *github.Client
	config *config.GitHubConfig
	logger *zap.Logger
}

func NewClient(cfg *config.GitHubConfig, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := &http.Client{
		Transport: &oauth2.Transport{Source: ts},
		Timeout:   timeout,
	}

	var githubClient *github.Client
	if cfg.BaseURL != "" && strings.TrimRight(cfg.BaseURL, "/") != config.DefaultGitHubBaseURL {
		// GitHub Enterprise
		var err error
		githubClient, err = github.NewClient(tc).WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL: %w", err)
		}
	} else {
		githubClient = github.NewClient(tc)
	}

	return &Client{
		client: githubClient,
		config: cfg,
		logger: logger,
	}, nil
}

// TestConnection resolves the authenticated user and returns its login.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	c.logger.Info("Testing GitHub connection...")

	user, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("connection test failed: %w", err)
	}

	c.logger.Info("GitHub connection successful", zap.String("login", user.GetLogin()))
	return user.GetLogin(), nil
}

// ListRepositories returns one page of repositories of any visibility and type owned by
// owner, in the order GitHub lists them. An empty slice means there are no more pages;
// short pages are not treated as the last one.
func (c *Client) ListRepositories(ctx context.Context, owner string, ownerType models.OwnerType, page int) ([]models.Repository, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if page < 1 {
		return nil, fmt.Errorf("page must be at least 1, got %d", page)
	}

	listOptions := github.ListOptions{Page: page, PerPage: PageSize}

	var (
		repos []*github.Repository
		err   error
	)
	switch ownerType {
	case models.OwnerTypeUser:
		repos, _, err = c.client.Repositories.ListByUser(ctx, owner, &github.RepositoryListByUserOptions{
			Type:        "all",
			ListOptions: listOptions,
		})
	case models.OwnerTypeOrganization:
		repos, _, err = c.client.Repositories.ListByOrg(ctx, owner, &github.RepositoryListByOrgOptions{
			Type:        "all",
			ListOptions: listOptions,
		})
	default:
		return nil, fmt.Errorf("unsupported owner type %q", ownerType)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories for %s %s (page %d): %w", ownerType, owner, page, err)
	}

	result := make([]models.Repository, 0, len(repos))
	for _, repo := range repos {
		result = append(result, models.Repository{
			Name:     repo.GetName(),
			Private:  repo.GetPrivate(),
			CloneURL: repo.GetCloneURL(),
		})
	}

	c.logger.Debug("Listed GitHub repositories", zap.Int("page", page), zap.Int("count", len(result)))
	return result, nil
}
