package port

import (
	"context"

	"github.com/MikeRez0/campuscafe/internal/core/domain"
)

//go:generate mockgen -source=catalog.go -destination=mock/catalog.go -package=mock
type Catalog interface {
	// FindAvailable returns ErrDataNotFound for unknown ids and
	// ErrItemUnavailable for items taken off the menu.
	FindAvailable(ctx context.Context, itemID string) (*domain.CatalogItem, error)
}
