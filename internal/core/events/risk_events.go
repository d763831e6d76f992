package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventRiskCreated    = "risk.created"
	EventRiskUpdated    = "risk.updated"
	EventRiskClosed     = "risk.closed"
	EventRiskEscalation = "risk.escalation"
	EventAccountLocked  = "user.locked"
)

// NewRiskEvent builds a lifecycle event for a register entry. Escalation
// events additionally carry the residual score so downstream notifiers can
// render severity without re-reading the store.
func NewRiskEvent(eventType, riskID, actor string, data map[string]interface{}) BaseEvent {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["risk_id"] = riskID
	data["actor"] = actor

	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewAccountLockedEvent is published when the failed-attempt counter reaches
// the lockout threshold.
func NewAccountLockedEvent(username string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      EventAccountLocked,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"username": username,
		},
	}
}
