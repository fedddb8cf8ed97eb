package ports

import "time"

// AuditEvent records a security-relevant identity action for the async audit
// trail. Events are fire-and-forget; losing one never fails the operation
// that emitted it.
type AuditEvent struct {
	Action        string
	PrincipalType string
	PrincipalID   string
	At            time.Time
	Details       map[string]string
}

// AuditSink accepts audit events for asynchronous processing.
type AuditSink interface {
	Emit(event AuditEvent)
}
