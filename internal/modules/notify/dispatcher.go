package notify

import (
	"context"

	"go.uber.org/zap"
)

// Dispatcher drains the outbound event list of a committed state transition.
// Implementations must not return delivery failures to the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []Event)
}

// LogDispatcher writes events to the log; used in development and as the
// fallback when no broker is configured.
type LogDispatcher struct {
	log *zap.Logger
}

func NewLogDispatcher(log *zap.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, events []Event) {
	for _, e := range events {
		d.log.Info("notification",
			zap.String("recipient", string(e.RecipientID)),
			zap.String("type", string(e.Type)),
			zap.String("reference", string(e.ReferenceID)),
			zap.String("message", e.Message))
	}
}
