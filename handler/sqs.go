package handler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aura-studio/lambdacore/internal/logging"
	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"
)

// HandleSQS runs every record of an SQS batch through the invocation
// pipeline, one after the other. The record body is the event: a JSON body is
// passed as is, any other body as a JSON string.
//
// In partial mode failed records are returned as batch item failures so that
// only they are retried; otherwise any failure fails the batch. In suspend
// mode the batch stops at the first failure.
func (h *Handler) HandleSQS(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	var resp events.SQSEventResponse
	for _, msg := range ev.Records {
		_, err := h.run(ctx, recordEvent(msg))
		if err == nil {
			continue
		}
		if h.SuspendMode {
			return events.SQSEventResponse{}, fmt.Errorf("handler: sqs message %s: %w", msg.MessageId, err)
		}
		if h.DebugMode {
			logging.Entry(h.Logger, "handler").WithField("messageId", msg.MessageId).
				Debugf("[SQS] Message failed: %v", err)
		}
		resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{ItemIdentifier: msg.MessageId})
	}

	if !h.PartialMode && len(resp.BatchItemFailures) > 0 {
		return events.SQSEventResponse{}, fmt.Errorf("handler: batch item failures: %d", len(resp.BatchItemFailures))
	}
	return resp, nil
}

func recordEvent(msg events.SQSMessage) json.RawMessage {
	if gjson.Valid(msg.Body) {
		return json.RawMessage(msg.Body)
	}
	b, _ := json.Marshal(msg.Body)
	return b
}
