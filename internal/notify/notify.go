// Package notify delivers the user-visible outcome messages that the
// dashboard surfaces as transient toasts: one per successful or failed
// mutation and per failed refresh.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rawnaqshop/dashboard-service/internal/model"
	"go.uber.org/zap"
)

type Notifier interface {
	Success(ctx context.Context, title, message string)
	Failure(ctx context.Context, title, message string)
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(ctx context.Context, title, message string) {
	n.logger.Info(title, zap.String("detail", message))
}

func (n *LogNotifier) Failure(ctx context.Context, title, message string) {
	n.logger.Warn(title, zap.String("detail", message))
}

// NotificationWriter is the single store method StoreNotifier needs.
type NotificationWriter interface {
	InsertNotification(ctx context.Context, n *model.Notification) error
}

// StoreNotifier persists notifications so clients can list them later.
// Writes are best-effort: a failed insert must never fail the mutation that
// produced it.
type StoreNotifier struct {
	writer NotificationWriter
	logger *zap.Logger
}

func NewStoreNotifier(writer NotificationWriter, logger *zap.Logger) *StoreNotifier {
	return &StoreNotifier{writer: writer, logger: logger}
}

func (n *StoreNotifier) Success(ctx context.Context, title, message string) {
	n.insert(ctx, title, message, "success")
}

func (n *StoreNotifier) Failure(ctx context.Context, title, message string) {
	n.insert(ctx, title, message, "error")
}

func (n *StoreNotifier) insert(ctx context.Context, title, message, kind string) {
	row := &model.Notification{
		ID:        uuid.New().String(),
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: time.Now(),
	}
	if err := n.writer.InsertNotification(ctx, row); err != nil {
		n.logger.Error("failed to persist notification", zap.Error(err))
	}
}

// Fanout delivers to every wrapped notifier.
type Fanout []Notifier

func (f Fanout) Success(ctx context.Context, title, message string) {
	for _, n := range f {
		n.Success(ctx, title, message)
	}
}

func (f Fanout) Failure(ctx context.Context, title, message string) {
	for _, n := range f {
		n.Failure(ctx, title, message)
	}
}
