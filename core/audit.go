package core

import (
	"context"
	"fmt"
	"time"
)

// Audit actions
const (
	AuditFinalizeClass   = "grades:finalize"
	AuditUnfinalizeClass = "grades:unfinalize"
	AuditCreateScale     = "gradescale:create"
	AuditUpdateScale     = "gradescale:update"
	AuditSetDefaultScale = "gradescale:set-default"
	AuditDeleteScale     = "gradescale:delete"
)

type (
	AuditEvent struct {
		Action   string      `json:"action"`
		Entity   string      `json:"entity"`
		EntityID string      `json:"entity_id"`
		ActorID  string      `json:"actor_id"`
		Reason   string      `json:"reason,omitempty"`
		Before   interface{} `json:"before,omitempty"`
		After    interface{} `json:"after,omitempty"`
		At       time.Time   `json:"at"` // UTC
	}

	// AuditSink records audit events. Recording is fire-and-forget for callers:
	// a failing sink must never fail the audited operation.
	AuditSink interface {
		Record(ctx context.Context, ev AuditEvent) error
	}
)

func (ev AuditEvent) String() string {
	return fmt.Sprintf("%s %s:%s by %s", ev.Action, ev.Entity, ev.EntityID, ev.ActorID)
}

// RecordAudit sends ev to sink and only logs a failure.
func RecordAudit(ctx context.Context, sink AuditSink, logger Logger, ev AuditEvent) {
	if sink == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := sink.Record(ctx, ev); err != nil {
		logger.Warn(fmt.Sprintf("recording audit event %q: %v", ev.String(), err), err)
	}
}
