package migration

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/jlucaspains/gh2forgejo/internal/forgejo"
	"github.com/jlucaspains/gh2forgejo/internal/models"
)

// snippetLines is how many lines of a rejected response body are kept.
const snippetLines = 200

// Submitter sends a migration request to the destination forge.
type Submitter interface {
	Migrate(ctx context.Context, request *models.MigrationRequest) (*forgejo.Response, error)
}

// Dispatcher either prints requests (dry run) or submits them and classifies the result.
type Dispatcher struct {
	submitter Submitter
	dryRun    bool
	out       io.Writer
	logger    *zap.Logger
}

func NewDispatcher(submitter Submitter, dryRun bool, out io.Writer, logger *zap.Logger) (*Dispatcher, error) {
	if !dryRun && submitter == nil {
		return nil, fmt.Errorf("a submitter is required outside dry run mode")
	}
	if dryRun && out == nil {
		return nil, fmt.Errorf("an output writer is required in dry run mode")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		submitter: submitter,
		dryRun:    dryRun,
		out:       out,
		logger:    logger,
	}, nil
}

func (d *Dispatcher) DryRun() bool {
	return d.dryRun
}

func (d *Dispatcher) Dispatch(ctx context.Context, request *models.MigrationRequest) models.Outcome {
	if d.dryRun {
		return d.print(request)
	}

	resp, err := d.submitter.Migrate(ctx, request)
	if err != nil {
		return models.Outcome{Kind: models.OutcomeTransportFailure, Message: err.Error(), Err: err}
	}

	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusAccepted {
		return models.Outcome{Kind: models.OutcomeAccepted, StatusCode: resp.StatusCode}
	}

	body := snippet(resp.Body)
	message := forgejo.ErrorMessage(resp.Body)
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return models.Outcome{
		Kind:       models.OutcomeRejected,
		StatusCode: resp.StatusCode,
		Message:    message,
		Body:       body,
	}
}

// print writes the request as one indented JSON document, with the credentials masked.
func (d *Dispatcher) print(request *models.MigrationRequest) models.Outcome {
	data, err := json.MarshalIndent(request.Redacted(), "", "  ")
	if err != nil {
		err = fmt.Errorf("failed to encode migration request: %w", err)
		return models.Outcome{Kind: models.OutcomeOutputFailure, Message: err.Error(), Err: err}
	}

	if _, err := fmt.Fprintln(d.out, string(data)); err != nil {
		err = fmt.Errorf("failed to print migration request: %w", err)
		return models.Outcome{Kind: models.OutcomeOutputFailure, Message: err.Error(), Err: err}
	}

	return models.Outcome{Kind: models.OutcomePrinted}
}

func snippet(body []byte) string {
	lines := strings.SplitN(string(body), "\n", snippetLines+1)
	if len(lines) > snippetLines {
		lines = lines[:snippetLines]
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
