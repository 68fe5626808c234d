// Package notify delivers best-effort settlement notifications. The money
// path never waits on or fails because of a notification.
package notify

import "context"

// Notification is a push/chat message for one user.
type Notification struct {
	RecipientID string            `json:"recipient_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Notifier enqueues a notification. Implementations must be safe to call
// from request handlers; errors are for logging only.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Transport is the external delivery collaborator (push or chat backend).
type Transport interface {
	Deliver(ctx context.Context, n Notification) error
}
