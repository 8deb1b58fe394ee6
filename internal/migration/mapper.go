package migration

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jlucaspains/gh2forgejo/internal/models"
)

// ErrInvalidRepository marks a source descriptor that cannot be turned into a request.
var ErrInvalidRepository = errors.New("invalid repository")

// MapperOptions holds the run-wide values copied into every request
type MapperOptions struct {
	Owner           string
	Mirror          bool
	MigrateMetadata bool
	AuthToken       string
}

// Mapper builds Forgejo migration requests from GitHub repositories. It has no side effects.
type Mapper struct {
	options MapperOptions
}

func NewMapper(options MapperOptions) *Mapper {
	return &Mapper{options: options}
}

// Service returns the migration service every request of this mapper uses.
func (m *Mapper) Service() models.ServiceKind {
	if m.options.MigrateMetadata {
		return models.ServiceGitHub
	}
	return models.ServiceGit
}

func (m *Mapper) MapRepository(repo models.Repository) (*models.MigrationRequest, error) {
	if err := ValidateRepository(repo); err != nil {
		return nil, err
	}

	request := &models.MigrationRequest{
		CloneAddr: repo.CloneURL,
		RepoName:  repo.Name,
		RepoOwner: m.options.Owner,
		Private:   repo.Private,
		Mirror:    m.options.Mirror,
		AuthToken: m.options.AuthToken,
	}
	if m.options.MigrateMetadata {
		request.Metadata = models.FullMetadataTransfer()
	} else if m.options.AuthToken != "" {
		// clone_addr stays credential free; the git service reads basic auth instead.
		request.AuthUsername = models.GitTokenUsername
		request.AuthPassword = m.options.AuthToken
	}

	return request, nil
}

// ValidateRepository checks that a descriptor has a name and an absolute http(s) clone URL.
func ValidateRepository(repo models.Repository) error {
	if strings.TrimSpace(repo.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidRepository)
	}

	if strings.TrimSpace(repo.CloneURL) == "" {
		return fmt.Errorf("%w: %s has no clone URL", ErrInvalidRepository, repo.Name)
	}

	parsed, err := url.Parse(repo.CloneURL)
	if err != nil {
		return fmt.Errorf("%w: %s has a malformed clone URL: %v", ErrInvalidRepository, repo.Name, err)
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %s has a malformed clone URL %q", ErrInvalidRepository, repo.Name, repo.CloneURL)
	}

	return nil
}
