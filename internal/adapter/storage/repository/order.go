package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/jackc/pgx/v5"
)

var orderColumns = []string{
	"id", "student_id", "status", "total_amount", "discount_amount",
	"points_earned", "points_redeemed", "redemption_settled",
	"order_time", "status_updated_time", "notes", "version",
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	order := domain.Order{Lines: make([]domain.OrderLine, 0)}
	err := row.Scan(
		&order.ID,
		&order.StudentID,
		&order.Status,
		&order.TotalAmount,
		&order.DiscountAmount,
		&order.LoyaltyPointsEarned,
		&order.LoyaltyPointsRedeemed,
		&order.RedemptionSettled,
		&order.OrderTime,
		&order.StatusUpdatedTime,
		&order.Notes,
		&order.Version,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	created := order.Clone()
	created.Version = 1

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		statement := r.db.QueryBuilder.Insert("orders").
			Columns(orderColumns...).
			Values(created.ID, created.StudentID, created.Status, created.TotalAmount, created.DiscountAmount,
				created.LoyaltyPointsEarned, created.LoyaltyPointsRedeemed, created.RedemptionSettled,
				created.OrderTime, created.StatusUpdatedTime, created.Notes, created.Version)

		sql, args, err := statement.ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return err
		}
		return r.insertLines(ctx, tx, created)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflictingData
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: student %s", domain.ErrDataNotFound, order.StudentID)
		}
		return nil, err
	}
	return created, nil
}

func (r *Repository) ReadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	return r.readOrder(ctx, r.db, orderID, false)
}

func (r *Repository) readOrder(ctx context.Context, q querier, orderID string, forUpdate bool) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(sq.Eq{"id": orderID})
	if forUpdate {
		statement = statement.Suffix("FOR UPDATE")
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	order, err := scanOrder(q.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	if err := r.attachLines(ctx, q, []*domain.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) ListOrdersByStudent(ctx context.Context, studentID string) ([]*domain.Order, error) {
	return r.listOrders(ctx, sq.Eq{"student_id": studentID})
}

func (r *Repository) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.listOrders(ctx, sq.Eq{"status": status})
}

func (r *Repository) listOrders(ctx context.Context, where sq.Eq) ([]*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Select(orderColumns...).
		From("orders").
		Where(where).
		OrderBy("order_time", "id")

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*domain.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachLines(ctx, r.db, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Repository) attachLines(ctx context.Context, q querier, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	statement := r.db.QueryBuilder.
		Select("order_id", "item_id", "item_name", "category", "unit_price", "quantity", "free", "subtotal").
		From("order_lines").
		Where(sq.Eq{"order_id": ids}).
		OrderBy("order_id", "position")

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		line := domain.OrderLine{}
		err := rows.Scan(
			&orderID,
			&line.Item.ID,
			&line.Item.Name,
			&line.Item.Category,
			&line.Item.Price,
			&line.Quantity,
			&line.Free,
			&line.Subtotal,
		)
		if err != nil {
			return err
		}
		// a line exists only while its item was orderable
		line.Item.Available = true
		if o, ok := byID[orderID]; ok {
			o.Lines = append(o.Lines, line)
		}
	}
	return rows.Err()
}

func (r *Repository) insertLines(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	if len(order.Lines) == 0 {
		return nil
	}

	statement := r.db.QueryBuilder.
		Insert("order_lines").
		Columns("order_id", "position", "item_id", "item_name", "category", "unit_price", "quantity", "free", "subtotal")
	for i, l := range order.Lines {
		statement = statement.Values(order.ID, i, l.Item.ID, l.Item.Name, l.Item.Category,
			l.Item.Price, l.Quantity, l.Free, l.Subtotal)
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sql, args...)
	return err
}

func (r *Repository) UpdateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var result *domain.Order

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		updated, err := r.writeOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// writeOrder replaces the order row and its lines when the stored version
// matches order.Version.
func (r *Repository) writeOrder(ctx context.Context, tx pgx.Tx, order *domain.Order) (*domain.Order, error) {
	statement := r.db.QueryBuilder.
		Update("orders").
		Set("status", order.Status).
		Set("total_amount", order.TotalAmount).
		Set("discount_amount", order.DiscountAmount).
		Set("points_earned", order.LoyaltyPointsEarned).
		Set("points_redeemed", order.LoyaltyPointsRedeemed).
		Set("redemption_settled", order.RedemptionSettled).
		Set("status_updated_time", order.StatusUpdatedTime).
		Set("notes", order.Notes).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"id": order.ID, "version": order.Version})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.readOrder(ctx, tx, order.ID, false); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: order %s version %d is stale",
			domain.ErrConflictingData, order.ID, order.Version)
	}

	del := r.db.QueryBuilder.Delete("order_lines").Where(sq.Eq{"order_id": order.ID})
	sql, args, err = del.ToSql()
	if err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return nil, err
	}

	updated := order.Clone()
	updated.Version++
	if err := r.insertLines(ctx, tx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *Repository) DeleteOrder(ctx context.Context, orderID string) (bool, error) {
	statement := r.db.QueryBuilder.Delete("orders").Where(sq.Eq{"id": orderID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return false, err
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateOrderWithAccount locks the order and its owner's account in one
// transaction and persists both only when updateFn succeeds.
func (r *Repository) UpdateOrderWithAccount(ctx context.Context, orderID string,
	updateFn port.UpdateOrderAccountFn) (*domain.Order, error) {
	var result *domain.Order

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		order, err := r.readOrder(ctx, tx, orderID, true)
		if err != nil {
			return err
		}
		account, err := r.readAccount(ctx, tx, order.StudentID, true)
		if err != nil {
			return err
		}

		if err := updateFn(order, account); err != nil {
			return err
		}

		updated, err := r.writeOrder(ctx, tx, order)
		if err != nil {
			return err
		}
		if err := r.writeAccount(ctx, tx, account); err != nil {
			return err
		}
		result = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
