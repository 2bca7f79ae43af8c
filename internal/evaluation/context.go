package evaluation

import (
	"context"
	"errors"
	"fmt"

	"crm_messaging_backend/internal/evaluation/agent"
	"crm_messaging_backend/internal/evaluation/catalog"
	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/repository"

	"golang.org/x/sync/errgroup"
)

// evalContext is the per-run snapshot every later step reads from.
type evalContext struct {
	lead             repository.Lead
	message          repository.Message
	transcript       []repository.Message
	history          []repository.Evaluation
	interactions     []repository.Interaction
	config           domain.EvaluationConfig
	settings         agent.Settings
	index            *catalog.Index
	intentions       []repository.Intention
	interactionTypes []repository.InteractionType
}

// loadContext reads everything an evaluation needs concurrently. Missing
// tenant configuration falls back to defaults; any other read error fails.
func (o *Orchestrator) loadContext(ctx context.Context, req Request) (*evalContext, error) {
	ec := &evalContext{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lead, err := o.repo.GetLead(gctx, req.LeadID, req.TenantID)
		if err != nil {
			return fmt.Errorf("load lead: %w", err)
		}
		ec.lead = lead
		return nil
	})
	g.Go(func() error {
		msg, err := o.repo.GetMessage(gctx, req.MessageID, req.TenantID)
		if err != nil {
			return fmt.Errorf("load message: %w", err)
		}
		if msg.ConversationID != req.ConversationID {
			return fmt.Errorf("message %s does not belong to conversation %s: %w", req.MessageID, req.ConversationID, repository.ErrNotFound)
		}
		ec.message = msg
		return nil
	})
	g.Go(func() error {
		msgs, err := o.repo.ListConversationMessages(gctx, req.ConversationID, req.TenantID, transcriptLimit)
		if err != nil {
			return fmt.Errorf("load transcript: %w", err)
		}
		ec.transcript = msgs
		return nil
	})
	g.Go(func() error {
		history, err := o.repo.ListRecentEvaluations(gctx, req.LeadID, req.TenantID, historyLimit)
		if err != nil {
			return fmt.Errorf("load evaluation history: %w", err)
		}
		ec.history = history
		return nil
	})
	g.Go(func() error {
		interactions, err := o.repo.ListRecentInteractions(gctx, req.LeadID, req.TenantID, interactionLimit)
		if err != nil {
			return fmt.Errorf("load interactions: %w", err)
		}
		ec.interactions = interactions
		return nil
	})
	g.Go(func() error {
		cfg, err := o.tenantConfig(gctx, req)
		if err != nil {
			return err
		}
		ec.config = cfg
		return nil
	})
	g.Go(func() error {
		ec.settings = o.llmSettings(gctx, req)
		return nil
	})
	g.Go(func() error {
		idx, err := o.catalog.Load(gctx, req.TenantID)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ec.index = idx
		return nil
	})
	g.Go(func() error {
		intentions, err := o.repo.ListIntentions(gctx, req.TenantID)
		if err != nil {
			return fmt.Errorf("load intentions: %w", err)
		}
		ec.intentions = intentions
		return nil
	})
	g.Go(func() error {
		types, err := o.repo.ListInteractionTypes(gctx, req.TenantID)
		if err != nil {
			return fmt.Errorf("load interaction types: %w", err)
		}
		ec.interactionTypes = types
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ec, nil
}

func (o *Orchestrator) tenantConfig(ctx context.Context, req Request) (domain.EvaluationConfig, error) {
	cfg, err := o.repo.GetEvaluationConfig(ctx, req.TenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return o.defaults, nil
	}
	if err != nil {
		return domain.EvaluationConfig{}, fmt.Errorf("load evaluation config: %w", err)
	}
	if cfg.MatchingAlgorithm == "" {
		cfg.MatchingAlgorithm = domain.MatchingKeyword
	}
	return cfg, nil
}

// llmSettings returns the tenant's model override, or zero settings for the
// process default. Lookup errors are logged and treated as absent.
func (o *Orchestrator) llmSettings(ctx context.Context, req Request) agent.Settings {
	cfg, err := o.repo.GetDefaultLLMConfiguration(ctx, req.TenantID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			o.log.Warn("llm configuration lookup failed, using default model", "tenant_id", req.TenantID, "error", err)
		}
		return agent.Settings{}
	}
	id := cfg.ID
	return agent.Settings{
		ConfigID: &id,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	}
}
