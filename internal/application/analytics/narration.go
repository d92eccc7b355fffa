package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/salesinsight/backend/internal/domain/analytics"
	"go.uber.org/zap"
)

// narrationGateway paces and bounds calls to the narration collaborator
type narrationGateway struct {
	narrator analytics.Narrator
	opts     *serviceOptions
}

func (g narrationGateway) enabled() bool {
	return g.narrator != nil
}

// narrate encodes summary and asks the narrator for prose. Every failure
// is reported as ErrCollaboratorUnavailable.
func (g narrationGateway) narrate(ctx context.Context, kind analytics.SummaryKind, summary any) (string, error) {
	if g.narrator == nil {
		return "", analytics.ErrCollaboratorUnavailable.WithMessage("narration is disabled")
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		return "", fmt.Errorf("encode %s summary: %w", kind, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.opts.settings.NarrationTimeout)
	defer cancel()

	if g.opts.limiter != nil {
		if err := g.opts.limiter.Wait(ctx); err != nil {
			g.opts.metrics.RecordCollaboratorFailure(ctx, CollaboratorNarration)
			return "", analytics.ErrCollaboratorUnavailable.WithMessage("narration rate limit exceeded").Wrap(err)
		}
	}

	text, err := g.narrator.Narrate(ctx, kind, payload)
	if err != nil {
		g.opts.metrics.RecordCollaboratorFailure(ctx, CollaboratorNarration)
		g.opts.logger.Warn("Narration failed", zap.String("kind", string(kind)), zap.Error(err))
		if errors.Is(err, analytics.ErrCollaboratorUnavailable) {
			return "", err
		}
		return "", analytics.ErrCollaboratorUnavailable.Wrap(err)
	}
	return text, nil
}
