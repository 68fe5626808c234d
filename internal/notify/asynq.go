package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// TaskPushNotification is the asynq task type for user notifications.
const TaskPushNotification = "notify:push"

const queueName = "notifications"

var _ Notifier = (*AsynqNotifier)(nil)

// AsynqNotifier enqueues notifications onto the Redis-backed queue.
type AsynqNotifier struct {
	client *asynq.Client
}

func NewAsynqNotifier(redisAddr string) *AsynqNotifier {
	return &AsynqNotifier{
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr}),
	}
}

func (a *AsynqNotifier) Notify(_ context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	_, err = a.client.Enqueue(asynq.NewTask(TaskPushNotification, payload), asynq.Queue(queueName))
	return err
}

func (a *AsynqNotifier) Close() error {
	return a.client.Close()
}

// Worker consumes the notification queue and hands each message to the
// delivery transport.
type Worker struct {
	server    *asynq.Server
	transport Transport
	log       *zap.Logger
}

func NewWorker(redisAddr string, transport Transport, log *zap.Logger) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 5,
			Queues:      map[string]int{queueName: 10},
		},
	)
	return &Worker{server: server, transport: transport, log: log}
}

// Start runs the worker in the background.
func (w *Worker) Start() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskPushNotification, w.handlePush)
	return w.server.Start(mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handlePush(ctx context.Context, t *asynq.Task) error {
	var n Notification
	if err := json.Unmarshal(t.Payload(), &n); err != nil {
		return err
	}
	if err := w.transport.Deliver(ctx, n); err != nil {
		w.log.Error("notification delivery failed",
			zap.String("recipient", n.RecipientID),
			zap.Error(err))
		return err
	}
	w.log.Info("notification delivered",
		zap.String("recipient", n.RecipientID),
		zap.String("title", n.Title))
	return nil
}
