package orchestrator

import (
	"context"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
	"github.com/JohnPitter/agenthub-sub003/internal/mq"
)

// handleWorkCompleted обрабатывает сообщение work.completed из очереди.
//
// Неизвестная корреляция — не повод для nack: сообщение подтверждается,
// иначе поздний callback зациклится в очереди навсегда.
func (o *Orchestrator) handleWorkCompleted(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.WorkCompletedPayload](&delivery.Message)
	if err != nil {
		o.logger.Error("failed to parse work.completed payload", "error", err)
		return err
	}

	o.logger.Debug("received work.completed event",
		"work_item_id", payload.WorkItemID,
		"status", payload.Status,
	)

	if payload.Status == string(domain.WorkItemStatusFailed) {
		o.OnExternalFailure(ctx, payload.WorkItemID, payload.Error)
		return nil
	}

	o.OnExternalCompletion(ctx, payload.WorkItemID, payload.Result)
	return nil
}
