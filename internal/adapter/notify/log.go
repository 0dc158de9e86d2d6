package notify

import (
	"context"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"go.uber.org/zap"
)

// LogNotifier writes events to the log. Used when no broker is configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, event domain.Event) {
	n.logger.Info("event",
		zap.String("type", string(event.Type)),
		zap.String("student", event.StudentID),
		zap.String("order", event.OrderID),
		zap.String("status", string(event.Status)),
		zap.Int("points", event.Points),
		zap.Time("at", event.OccurredAt))
}
