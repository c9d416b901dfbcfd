package adapter

import (
	"context"

	"vehicle-registration-bot/internal/domain/model"
)

// AdminNotifier pushes out-of-band alerts to the operator channel. Calls must
// not block request processing; implementations deliver best-effort.
type AdminNotifier interface {
	NotifySubmitted(ctx context.Context, req *model.Request)
}
