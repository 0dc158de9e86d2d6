package port

import (
	"context"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
)

//go:generate mockgen -source=notify.go -destination=mock/notify.go -package=mock
type Notifier interface {
	// Notify must not block on delivery.
	Notify(ctx context.Context, event domain.Event)
}
