package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

var _ Notifier = (*LogNotifier)(nil)

// LogNotifier writes notifications to the log instead of a queue. Used for
// local runs without Redis and as the test double.
type LogNotifier struct {
	log *zap.Logger

	mu   sync.Mutex
	sent []Notification
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.mu.Lock()
	l.sent = append(l.sent, n)
	l.mu.Unlock()
	l.log.Info("notification",
		zap.String("recipient", n.RecipientID),
		zap.String("title", n.Title),
		zap.String("body", n.Body))
	return nil
}

// Sent returns a copy of everything notified so far.
func (l *LogNotifier) Sent() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Notification, len(l.sent))
	copy(out, l.sent)
	return out
}

var _ Transport = (*LogTransport)(nil)

// LogTransport is a delivery stub for environments without a push backend.
type LogTransport struct {
	Log *zap.Logger
}

func (t *LogTransport) Deliver(_ context.Context, n Notification) error {
	t.Log.Info("push delivered",
		zap.String("recipient", n.RecipientID),
		zap.String("title", n.Title))
	return nil
}
