package app

import (
	"context"
	"log"

	"pdfexchange/internal/model"
)

// publishEvent pushes a session event without failing the request; events
// are an audit trail, not part of the operation's contract.
func publishEvent(ctx context.Context, publisher EventPublisher, sessionID uint, eventType, detail string) {
	if publisher == nil {
		return
	}
	ev := model.SessionEvent{
		SessionID: sessionID,
		EventType: eventType,
		Detail:    detail,
	}
	if err := publisher.Publish(ctx, ev); err != nil {
		log.Printf("publish %s event failed: %v", eventType, err)
	}
}
