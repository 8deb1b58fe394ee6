package models

import (
	"encoding/json"
	"time"
)

// ServiceKind is the Forgejo migration service used for a repository
type ServiceKind string

const (
	// ServiceGitHub transfers git history plus wiki, issues, labels, milestones,
	// pull requests and releases.
	ServiceGitHub ServiceKind = "github"
	// ServiceGit transfers git history only.
	ServiceGit ServiceKind = "git"
)

// MetadataTransfer lists the metadata the destination is asked to import.
type MetadataTransfer struct {
	Wiki         bool `json:"wiki"`
	Issues       bool `json:"issues"`
	Labels       bool `json:"labels"`
	Milestones   bool `json:"milestones"`
	PullRequests bool `json:"pull_requests"`
	Releases     bool `json:"releases"`
}

// FullMetadataTransfer requests every kind of metadata.
func FullMetadataTransfer() *MetadataTransfer {
	return &MetadataTransfer{
		Wiki:         true,
		Issues:       true,
		Labels:       true,
		Milestones:   true,
		PullRequests: true,
		Releases:     true,
	}
}

// GitTokenUsername is the basic auth user GitHub accepts together with a token as password.
const GitTokenUsername = "x-access-token"

// MigrationRequest is the body of POST /api/v1/repos/migrate.
//
// The service kind is not stored: it is ServiceGitHub when Metadata is set and ServiceGit
// otherwise, so the serialized form always carries exactly one of the two field sets.
// The git service ignores auth_token and clones with AuthUsername/AuthPassword.
type MigrationRequest struct {
	CloneAddr    string
	RepoName     string
	RepoOwner    string
	Private      bool
	Mirror       bool
	AuthToken    string
	AuthUsername string
	AuthPassword string
	Metadata     *MetadataTransfer
}

// Service returns the migration service implied by the request.
func (r MigrationRequest) Service() ServiceKind {
	if r.Metadata != nil {
		return ServiceGitHub
	}
	return ServiceGit
}

type migrationRequestWire struct {
	CloneAddr    string      `json:"clone_addr"`
	RepoName     string      `json:"repo_name"`
	RepoOwner    string      `json:"repo_owner"`
	Private      bool        `json:"private"`
	Mirror       bool        `json:"mirror"`
	Service      ServiceKind `json:"service"`
	AuthToken    string      `json:"auth_token,omitempty"`
	AuthUsername string      `json:"auth_username,omitempty"`
	AuthPassword string      `json:"auth_password,omitempty"`
	*MetadataTransfer
}

func (r MigrationRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(migrationRequestWire{
		CloneAddr:        r.CloneAddr,
		RepoName:         r.RepoName,
		RepoOwner:        r.RepoOwner,
		Private:          r.Private,
		Mirror:           r.Mirror,
		Service:          r.Service(),
		AuthToken:        r.AuthToken,
		AuthUsername:     r.AuthUsername,
		AuthPassword:     r.AuthPassword,
		MetadataTransfer: r.Metadata,
	})
}

// Redacted returns a copy safe to print, with the credentials masked.
func (r MigrationRequest) Redacted() *MigrationRequest {
	clone := r
	if clone.AuthToken != "" {
		clone.AuthToken = "***"
	}
	if clone.AuthPassword != "" {
		clone.AuthPassword = "***"
	}
	if r.Metadata != nil {
		metadata := *r.Metadata
		clone.Metadata = &metadata
	}
	return &clone
}

// OutcomeKind classifies the result of dispatching one request
type OutcomeKind string

const (
	OutcomePrinted          OutcomeKind = "printed"
	OutcomeAccepted         OutcomeKind = "accepted"
	OutcomeRejected         OutcomeKind = "rejected"
	OutcomeTransportFailure OutcomeKind = "transport_failure"
	// OutcomeOutputFailure means a dry-run request could not be encoded or printed.
	OutcomeOutputFailure OutcomeKind = "output_failure"
)

// Outcome is the result of a single dispatch. StatusCode is set for accepted and rejected
// outcomes, Body holds the response snippet of a rejection and Err the transport or
// output error.
type Outcome struct {
	Kind       OutcomeKind
	StatusCode int
	Message    string
	Body       string
	Err        error
}

// Succeeded reports whether the repository was printed or queued by the destination.
func (o Outcome) Succeeded() bool {
	return o.Kind == OutcomePrinted || o.Kind == OutcomeAccepted
}

// Mapping statuses recorded in the report
const (
	StatusMigrated = "migrated"
	StatusPrinted  = "printed"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// MigrationMapping records what happened to one source repository
type MigrationMapping struct {
	SourceRepository      string    `json:"source_repository"`
	DestinationRepository string    `json:"destination_repository"`
	Service               string    `json:"service,omitempty"`
	Status                string    `json:"status"`
	Reason                string    `json:"reason,omitempty"`
	HTTPStatus            int       `json:"http_status,omitempty"`
	ErrorMessage          string    `json:"error_message,omitempty"`
	Page                  int       `json:"page"`
	ProcessedAt           time.Time `json:"processed_at"`
}

// MigrationReport represents a summary of the migration process
type MigrationReport struct {
	StartTime       time.Time          `json:"start_time"`
	EndTime         *time.Time         `json:"end_time,omitempty"`
	DryRun          bool               `json:"dry_run"`
	PagesFetched    int                `json:"pages_fetched"`
	TotalRepos      int                `json:"total_repositories"`
	SuccessfulCount int                `json:"successful_count"`
	FailedCount     int                `json:"failed_count"`
	SkippedCount    int                `json:"skipped_count"`
	DuplicateCount  int                `json:"duplicate_count"`
	Mappings        []MigrationMapping `json:"mappings"`
	Errors          []string           `json:"errors,omitempty"`
}
