package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/diligence/internal/adapters/driving/report"
	"github.com/custodia-labs/diligence/internal/connectors/filesystem"
	"github.com/custodia-labs/diligence/internal/core/domain"
	"github.com/custodia-labs/diligence/internal/core/ports/driving"
	"github.com/custodia-labs/diligence/internal/logger"
)

// tierSetter is implemented by sessions whose question tier can change.
type tierSetter interface {
	SetTier(tier domain.ModelTier) error
}

// openSession creates a session and returns a function that closes it.
func openSession(ctx context.Context, tier string) (driving.Session, func(), error) {
	if sessionManager == nil {
		return nil, nil, errSessionsNotConfigured
	}

	session, err := sessionManager.Create(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start session: %w", err)
	}
	closeFn := func() {
		if err := sessionManager.Close(context.WithoutCancel(ctx), session.ID()); err != nil {
			logger.Warn("closing session %s: %v", session.ID(), err)
		}
	}

	if tier != "" {
		setter, ok := session.(tierSetter)
		if !ok {
			closeFn()
			return nil, nil, errors.New("session does not support model tiers")
		}
		if err := setter.SetTier(domain.ModelTier(tier)); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return session, closeFn, nil
}

// uploadFiles registers every file with the session's corpus.
func uploadFiles(ctx context.Context, cmd *cobra.Command, session driving.Session, paths []string) error {
	for _, path := range paths {
		upload, err := filesystem.Load(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		reg, err := session.Corpus().Register(ctx, upload)
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", path, err)
		}
		if reg.Duplicate {
			cmd.PrintErrf("Skipped %s: same content as %s\n", upload.Filename, reg.Document.Name)
			continue
		}
		logger.Debug("uploaded %s as %s", upload.Filename, reg.Document.ID)
	}
	if len(paths) > 0 {
		cmd.PrintErrf("Indexing %d document(s)...\n", len(paths))
	}
	return nil
}

// waitForCorpus blocks until indexing finishes and reports failed documents.
func waitForCorpus(ctx context.Context, cmd *cobra.Command, session driving.Session) error {
	if err := session.Corpus().Wait(ctx); err != nil {
		return err
	}
	status := session.Corpus().Status(ctx)
	if status.Readiness != domain.ReadinessReady {
		cmd.PrintErrln(report.Status(status))
	}
	return nil
}

// describeError turns pipeline errors into messages for the terminal.
func describeError(err error) error {
	var notReady *domain.NotReadyError
	var indexErr *domain.IndexError
	var timeout *domain.UpstreamTimeoutError

	switch {
	case err == nil:
		return nil
	case errors.As(err, &notReady):
		switch notReady.Readiness {
		case domain.ReadinessEmpty:
			return errors.New("no documents uploaded; pass files with --file")
		case domain.ReadinessDegraded:
			return fmt.Errorf("some documents failed to index; remove them and retry (%s)", notReady.Reason)
		default:
			return fmt.Errorf("documents are still indexing: %s", notReady.Reason)
		}
	case errors.As(err, &indexErr):
		return fmt.Errorf("could not index %s: %w", indexErr.DocumentName, indexErr.Err)
	case errors.As(err, &timeout):
		return fmt.Errorf("%s took longer than %s; try again or raise timeouts.%s", timeout.Op, timeout.Timeout, timeout.Op)
	case errors.Is(err, domain.ErrLLMUnavailable):
		return errors.New("no LLM provider configured; run 'diligence settings set llm.api_key <key>'")
	case errors.Is(err, domain.ErrRateLimited):
		return errors.New("the LLM provider is rate limiting requests; wait a moment and retry")
	default:
		return err
	}
}
