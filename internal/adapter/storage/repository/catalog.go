package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) FindAvailable(ctx context.Context, itemID string) (*domain.CatalogItem, error) {
	statement := r.db.QueryBuilder.
		Select("id", "name", "price", "category", "available").
		From("menu_items").
		Where(sq.Eq{"id": itemID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	item := domain.CatalogItem{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&item.ID,
		&item.Name,
		&item.Price,
		&item.Category,
		&item.Available,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: menu item %s", domain.ErrDataNotFound, itemID)
		}
		return nil, err
	}
	if !item.Available {
		return nil, fmt.Errorf("%w: %s", domain.ErrItemUnavailable, itemID)
	}

	return &item, nil
}
