package evaluation

import (
	"context"

	"crm_messaging_backend/internal/analytics"
	"crm_messaging_backend/internal/evaluation/classify"
	"crm_messaging_backend/internal/evaluation/keywords"
	"crm_messaging_backend/internal/evaluation/repository"
	"crm_messaging_backend/internal/events"

	"github.com/google/uuid"
)

const (
	intentInteractionType = "intencion identificada"
	defaultIntentValor    = 5
)

// followUp runs the post-persistence steps. Failures are logged, never returned.
func (o *Orchestrator) followUp(ctx context.Context, ec *evalContext, res Result, kws []string) *classify.Classification {
	req := Request{
		TenantID:       res.Evaluation.TenantID,
		LeadID:         res.Evaluation.LeadID,
		ConversationID: res.Evaluation.ConversationID,
		MessageID:      res.Evaluation.MessageID,
	}

	o.detectAlerts(ctx, ec, req, res)
	matchedIntents := o.registerIntentions(ctx, ec, req, kws)

	classification := classify.Classify(classify.Signals{
		Score:             res.Score.NuevoScore,
		ScoreSatisfaccion: res.Evaluation.ScoreSatisfaccion,
		MatchedIntents:    matchedIntents,
		MatchedProducts:   len(res.Matches),
		UserMessages:      countUserMessages(ec.transcript),
	}, ec.config)

	if err := o.repo.UpdateLeadClassification(ctx, req.LeadID, req.TenantID, classification.Temperature, classification.Priority); err != nil {
		o.log.Error("lead classification update failed", "lead_id", req.LeadID, "error", err)
		return nil
	}

	o.recorder.RecordEvent(ctx, analytics.Event{
		TenantID:   req.TenantID,
		Type:       analytics.EventLeadCalificado,
		LeadID:     optionalID(req.LeadID),
		MessageID:  optionalID(req.MessageID),
		ScoreValue: analytics.Score(classification.Index),
		Result:     analytics.ResultSuccess,
		Detail:     classification.Temperature + "/" + classification.Priority,
		Metadata: map[string]any{
			"temperature": classification.Temperature,
			"priority":    classification.Priority,
			"score":       res.Score.NuevoScore,
		},
	})
	if o.bus != nil {
		o.bus.Publish(ctx, events.LeadClassified{
			BaseEvent:   events.NewBaseEvent(),
			TenantID:    req.TenantID,
			LeadID:      req.LeadID,
			Score:       res.Score.NuevoScore,
			Temperature: classification.Temperature,
			Priority:    classification.Priority,
		})
	}
	return &classification
}

// detectAlerts reports a drastic drop against the previous evaluation and
// satisfaction under the tenant minimum.
func (o *Orchestrator) detectAlerts(ctx context.Context, ec *evalContext, req Request, res Result) {
	current := res.Evaluation
	if len(ec.history) > 0 {
		prev := ec.history[0]
		potentialDrop := prev.ScorePotencial - current.ScorePotencial
		satisfactionDrop := prev.ScoreSatisfaccion - current.ScoreSatisfaccion
		threshold := ec.config.DrasticChangeThreshold
		if threshold > 0 && (potentialDrop >= threshold || satisfactionDrop >= threshold) {
			o.recorder.RecordEvent(ctx, analytics.Event{
				TenantID:       req.TenantID,
				Type:           analytics.EventCambioDrastico,
				LeadID:         optionalID(req.LeadID),
				ConversationID: optionalID(req.ConversationID),
				MessageID:      optionalID(req.MessageID),
				ScoreValue:     analytics.Score(float64(res.Score.NuevoScore)),
				Result:         analytics.ResultWarning,
				Detail:         current.Comentario,
				Metadata: map[string]any{
					"potencial_anterior":    prev.ScorePotencial,
					"potencial_actual":      current.ScorePotencial,
					"satisfaccion_anterior": prev.ScoreSatisfaccion,
					"satisfaccion_actual":   current.ScoreSatisfaccion,
				},
			})
		}
	}

	if current.ScoreSatisfaccion < ec.config.MinSatisfaction {
		o.recorder.RecordEvent(ctx, analytics.Event{
			TenantID:       req.TenantID,
			Type:           analytics.EventSatisfaccionBaja,
			LeadID:         optionalID(req.LeadID),
			ConversationID: optionalID(req.ConversationID),
			MessageID:      optionalID(req.MessageID),
			ScoreValue:     analytics.Score(float64(current.ScoreSatisfaccion)),
			Result:         analytics.ResultWarning,
			Detail:         current.Comentario,
			Metadata:       map[string]any{"minimo": ec.config.MinSatisfaction},
		})
	}
}

// registerIntentions records one interaction per tenant intention whose
// keywords overlap the evaluation keywords. It returns how many matched.
func (o *Orchestrator) registerIntentions(ctx context.Context, ec *evalContext, req Request, kws []string) int {
	matched := MatchIntentions(kws, ec.intentions)
	if len(matched) == 0 {
		return 0
	}

	typeID, ok := intentTypeID(ec.interactionTypes)
	if !ok {
		o.log.Warn("no interaction type available for intentions", "tenant_id", req.TenantID)
		return len(matched)
	}

	params := make([]repository.CreateInteractionParams, 0, len(matched))
	for _, intention := range matched {
		valor := float64(intention.Priority)
		if intention.Priority <= 0 {
			valor = defaultIntentValor
		}
		params = append(params, repository.CreateInteractionParams{
			TenantID:          req.TenantID,
			LeadID:            req.LeadID,
			InteractionTypeID: typeID,
			ValorScore:        valor,
			Metadata: map[string]any{
				"intencion_id":    intention.ID.String(),
				"intencion":       intention.Name,
				"mensaje_id":      req.MessageID.String(),
				"conversacion_id": req.ConversationID.String(),
				"palabras_clave":  kws,
				"origen":          "evaluacion",
			},
		})
	}
	if err := o.repo.CreateInteractions(ctx, params); err != nil {
		o.log.Error("intention registration failed", "lead_id", req.LeadID, "error", err)
		return len(matched)
	}

	o.recorder.RecordEvent(ctx, analytics.Event{
		TenantID:  req.TenantID,
		Type:      analytics.EventInteraccionRegistrada,
		LeadID:    optionalID(req.LeadID),
		MessageID: optionalID(req.MessageID),
		Result:    analytics.ResultSuccess,
		Detail:    "intenciones identificadas",
		Metadata:  map[string]any{"cantidad": len(params)},
	})
	return len(matched)
}

// MatchIntentions returns the intentions, without duplicates and in taxonomy
// order, that share at least one folded keyword with kws.
func MatchIntentions(kws []string, intentions []repository.Intention) []repository.Intention {
	if len(kws) == 0 || len(intentions) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(kws))
	for _, kw := range kws {
		set[keywords.Fold(kw)] = struct{}{}
	}

	var out []repository.Intention
	seen := make(map[uuid.UUID]struct{})
	for _, intention := range intentions {
		if _, dup := seen[intention.ID]; dup {
			continue
		}
		for _, ikw := range intention.Keywords {
			if _, ok := set[keywords.Fold(ikw)]; ok {
				seen[intention.ID] = struct{}{}
				out = append(out, intention)
				break
			}
		}
	}
	return out
}

// intentTypeID prefers the dedicated intention type and falls back to the
// first active type.
func intentTypeID(types []repository.InteractionType) (uuid.UUID, bool) {
	if len(types) == 0 {
		return uuid.Nil, false
	}
	for _, t := range types {
		if keywords.Fold(t.Name) == intentInteractionType {
			return t.ID, true
		}
	}
	return types[0].ID, true
}

func countUserMessages(messages []repository.Message) int {
	n := 0
	for _, m := range messages {
		if m.Role == repository.RoleUser {
			n++
		}
	}
	return n
}
