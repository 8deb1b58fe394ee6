package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/jlucaspains/gh2forgejo/internal/models"
)

// RepositoryLister returns one page of source repositories. An empty page ends the listing.
type RepositoryLister interface {
	ListRepositories(ctx context.Context, owner string, ownerType models.OwnerType, page int) ([]models.Repository, error)
}

// ExistingRepositoryLister returns the names already present on the destination.
type ExistingRepositoryLister interface {
	ListRepositoryNames(ctx context.Context, owner string) ([]string, error)
}

type EngineOptions struct {
	SourceOwner      string
	OwnerType        models.OwnerType
	DestinationOwner string
	SkipExisting     bool
}

// RunState is the bookkeeping of one run. It is created by Run and dropped when Run returns.
type RunState struct {
	Tracker *Tracker
	Page    int

	existing map[string]struct{}
}

func newRunState() *RunState {
	return &RunState{
		Tracker:  NewTracker(),
		Page:     1,
		existing: make(map[string]struct{}),
	}
}

type Engine struct {
	lister     RepositoryLister
	existing   ExistingRepositoryLister
	mapper     *Mapper
	dispatcher *Dispatcher
	options    EngineOptions
	logger     *zap.Logger
	report     *models.MigrationReport
}

// NewEngine wires the run driver. existing may be nil when SkipExisting is off.
func NewEngine(
	lister RepositoryLister,
	existing ExistingRepositoryLister,
	mapper *Mapper,
	dispatcher *Dispatcher,
	options EngineOptions,
	logger *zap.Logger,
) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		lister:     lister,
		existing:   existing,
		mapper:     mapper,
		dispatcher: dispatcher,
		options:    options,
		logger:     logger,
	}
}

// Run pages through the source account until an empty page and dispatches every distinct
// repository. Per-repository failures are recorded in the report; listing failures and
// cancellation abort the run with an error.
func (e *Engine) Run(ctx context.Context) (*models.MigrationReport, error) {
	e.report = &models.MigrationReport{
		StartTime: time.Now(),
		DryRun:    e.dispatcher.DryRun(),
		Mappings:  []models.MigrationMapping{},
		Errors:    []string{},
	}

	state := newRunState()
	defer state.Tracker.Reset()

	e.logger.Info("Starting GitHub to Forgejo migration...",
		zap.String("source", e.options.SourceOwner),
		zap.String("owner_type", string(e.options.OwnerType)),
		zap.String("destination", e.options.DestinationOwner),
		zap.String("service", string(e.mapper.Service())),
		zap.Bool("dry_run", e.report.DryRun))

	if e.report.DryRun {
		e.logger.Info("DRY RUN MODE - No changes will be made")
	}

	if e.options.SkipExisting {
		if err := e.loadExisting(ctx, state); err != nil {
			return nil, err
		}
	}

	for ; ; state.Page++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("migration interrupted before page %d: %w", state.Page, err)
		}

		e.logger.Info("Fetching repositories", zap.Int("page", state.Page))
		repos, err := e.lister.ListRepositories(ctx, e.options.SourceOwner, e.options.OwnerType, state.Page)
		if err != nil {
			return nil, fmt.Errorf("failed to list repositories on page %d: %w", state.Page, err)
		}
		e.report.PagesFetched++

		if len(repos) == 0 {
			e.logger.Debug("Empty page, listing complete", zap.Int("page", state.Page))
			break
		}
		e.logger.Info("Found repositories", zap.Int("page", state.Page), zap.Int("count", len(repos)))

		for _, repo := range repos {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("migration interrupted on page %d: %w", state.Page, err)
			}
			e.processRepository(ctx, state, repo)
		}
	}

	endTime := time.Now()
	e.report.EndTime = &endTime

	e.logger.Info("Migration completed",
		zap.Int("pages", e.report.PagesFetched),
		zap.Int("total", e.report.TotalRepos),
		zap.Int("distinct", state.Tracker.Len()),
		zap.Int("successful", e.report.SuccessfulCount),
		zap.Int("failed", e.report.FailedCount),
		zap.Int("skipped", e.report.SkippedCount),
		zap.Int("duplicates", e.report.DuplicateCount))

	return e.report, nil
}

func (e *Engine) loadExisting(ctx context.Context, state *RunState) error {
	if e.existing == nil {
		return fmt.Errorf("skip existing requires a destination repository lister")
	}

	names, err := e.existing.ListRepositoryNames(ctx, e.options.DestinationOwner)
	if err != nil {
		return fmt.Errorf("failed to list existing repositories: %w", err)
	}
	for _, name := range names {
		state.existing[name] = struct{}{}
	}

	e.logger.Info("Loaded existing destination repositories",
		zap.String("owner", e.options.DestinationOwner),
		zap.Int("count", len(names)))
	return nil
}

func (e *Engine) processRepository(ctx context.Context, state *RunState, repo models.Repository) {
	e.report.TotalRepos++

	if err := ValidateRepository(repo); err != nil {
		e.logger.Warn("Skipping invalid repository", zap.String("repository", repo.Name), zap.Error(err))
		e.recordSkip(state, repo, "invalid", err.Error())
		return
	}

	if _, exists := state.existing[repo.Name]; exists {
		e.logger.Info("Repository already exists on destination, skipping", zap.String("repository", repo.Name))
		e.recordSkip(state, repo, "existing", "")
		return
	}

	if !state.Tracker.Accept(repo.Name) {
		e.logger.Warn("Skipping duplicate repository", zap.String("repository", repo.Name), zap.Int("page", state.Page))
		e.report.DuplicateCount++
		e.recordSkip(state, repo, "duplicate", "")
		return
	}

	request, err := e.mapper.MapRepository(repo)
	if err != nil {
		e.logger.Error("Failed to build migration request", zap.String("repository", repo.Name), zap.Error(err))
		e.recordFailure(state, repo, 0, err.Error())
		return
	}

	e.logger.Info("Queueing migration",
		zap.String("repository", repo.Name),
		zap.String("destination", e.destination(repo)),
		zap.String("visibility", repo.Visibility()))

	outcome := e.dispatcher.Dispatch(ctx, request)
	if outcome.Succeeded() {
		e.report.SuccessfulCount++
	}

	switch outcome.Kind {
	case models.OutcomePrinted:
		e.recordMapping(state, repo, request.Service(), models.StatusPrinted, "", 0, "")
	case models.OutcomeAccepted:
		e.logger.Info("Migration accepted", zap.String("repository", repo.Name), zap.Int("status", outcome.StatusCode))
		e.recordMapping(state, repo, request.Service(), models.StatusMigrated, "", outcome.StatusCode, "")
	case models.OutcomeRejected:
		e.logger.Error("Migration rejected",
			zap.String("repository", repo.Name),
			zap.Int("status", outcome.StatusCode),
			zap.String("message", outcome.Message),
			zap.String("body", outcome.Body))
		e.recordFailure(state, repo, outcome.StatusCode, outcome.Message)
	case models.OutcomeOutputFailure:
		e.logger.Error("Failed to print migration request", zap.String("repository", repo.Name), zap.Error(outcome.Err))
		e.recordFailure(state, repo, 0, outcome.Message)
	default:
		e.logger.Error("Migration request failed", zap.String("repository", repo.Name), zap.Error(outcome.Err))
		e.recordFailure(state, repo, 0, outcome.Message)
	}
}

func (e *Engine) destination(repo models.Repository) string {
	return e.options.DestinationOwner + "/" + repo.Name
}

func (e *Engine) recordSkip(state *RunState, repo models.Repository, reason, errorMsg string) {
	e.report.SkippedCount++
	e.recordMapping(state, repo, "", models.StatusSkipped, reason, 0, errorMsg)
}

func (e *Engine) recordFailure(state *RunState, repo models.Repository, httpStatus int, errorMsg string) {
	e.report.FailedCount++
	e.report.Errors = append(e.report.Errors, fmt.Sprintf("Repository %s: %s", repo.Name, errorMsg))
	e.recordMapping(state, repo, e.mapper.Service(), models.StatusFailed, "", httpStatus, errorMsg)
}

func (e *Engine) recordMapping(state *RunState, repo models.Repository, service models.ServiceKind, status, reason string, httpStatus int, errorMsg string) {
	e.report.Mappings = append(e.report.Mappings, models.MigrationMapping{
		SourceRepository:      e.options.SourceOwner + "/" + repo.Name,
		DestinationRepository: e.destination(repo),
		Service:               string(service),
		Status:                status,
		Reason:                reason,
		HTTPStatus:            httpStatus,
		ErrorMessage:          errorMsg,
		Page:                  state.Page,
		ProcessedAt:           time.Now(),
	})
}

// Report returns the report of the last run, or nil before the first run.
func (e *Engine) Report() *models.MigrationReport {
	return e.report
}

func (e *Engine) SaveReport(filePath string) error {
	if e.report == nil {
		return fmt.Errorf("no migration report to save")
	}

	if filePath == "" {
		filePath = fmt.Sprintf("migration_report_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	data, err := json.MarshalIndent(e.report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	e.logger.Info("Migration report saved", zap.String("path", filePath))
	return nil
}
