package scheduler

import (
	"encoding/json"
	"fmt"

	"crm_messaging_backend/internal/evaluation"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskEvaluateMessage = "evaluation.message"

type EvaluateMessagePayload struct {
	TenantID       string `json:"tenantId"`
	LeadID         string `json:"leadId"`
	ConversationID string `json:"conversationId"`
	MessageID      string `json:"messageId"`
}

func NewEvaluateMessageTask(req evaluation.Request) (*asynq.Task, error) {
	data, err := json.Marshal(EvaluateMessagePayload{
		TenantID:       req.TenantID.String(),
		LeadID:         req.LeadID.String(),
		ConversationID: req.ConversationID.String(),
		MessageID:      req.MessageID.String(),
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEvaluateMessage, data), nil
}

func ParseEvaluateMessagePayload(task *asynq.Task) (evaluation.Request, error) {
	var payload EvaluateMessagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return evaluation.Request{}, err
	}

	var req evaluation.Request
	ids := []struct {
		name  string
		value string
		dst   *uuid.UUID
	}{
		{"tenantId", payload.TenantID, &req.TenantID},
		{"leadId", payload.LeadID, &req.LeadID},
		{"conversationId", payload.ConversationID, &req.ConversationID},
		{"messageId", payload.MessageID, &req.MessageID},
	}
	for _, id := range ids {
		parsed, err := uuid.Parse(id.value)
		if err != nil {
			return evaluation.Request{}, fmt.Errorf("invalid %s: %w", id.name, err)
		}
		*id.dst = parsed
	}
	return req, nil
}
