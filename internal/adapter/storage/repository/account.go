package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/MikeRez0/campuscafe/internal/core/port"
	"github.com/jackc/pgx/v5"
)

// ReadAccount returns the balance only; the ledger is read through ListTransactions.
func (r *Repository) ReadAccount(ctx context.Context, studentID string) (*domain.LoyaltyAccount, error) {
	return r.readAccount(ctx, r.db, studentID, false)
}

func (r *Repository) readAccount(ctx context.Context, q querier, studentID string,
	forUpdate bool) (*domain.LoyaltyAccount, error) {
	statement := r.db.QueryBuilder.
		Select("student_id", "points_balance").
		From("loyalty_accounts").
		Where(sq.Eq{"student_id": studentID})
	if forUpdate {
		statement = statement.Suffix("FOR UPDATE")
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	account := domain.LoyaltyAccount{Transactions: make([]domain.LoyaltyTransaction, 0)}
	err = q.QueryRow(ctx, sql, args...).Scan(&account.StudentID, &account.PointsBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &account, nil
}

func (r *Repository) ListTransactions(ctx context.Context, studentID string,
	limit int) ([]domain.LoyaltyTransaction, error) {
	if _, err := r.ReadAccount(ctx, studentID); err != nil {
		return nil, err
	}

	statement := r.db.QueryBuilder.
		Select("id", "type", "points", "description", "created_at").
		From("loyalty_transactions").
		Where(sq.Eq{"student_id": studentID}).
		OrderBy("id DESC")
	if limit > 0 {
		statement = statement.Limit(uint64(limit))
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]domain.LoyaltyTransaction, 0)
	for rows.Next() {
		t := domain.LoyaltyTransaction{}
		if err := rows.Scan(&t.ID, &t.Type, &t.Points, &t.Description, &t.Timestamp); err != nil {
			return nil, err
		}
		list = append(list, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// UpdateAccount locks the account row, so a debit inside updateFn sees the
// balance as of the lock and not an earlier read.
func (r *Repository) UpdateAccount(ctx context.Context, studentID string,
	updateFn port.UpdateAccountFn) (*domain.LoyaltyAccount, error) {
	var result *domain.LoyaltyAccount

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		account, err := r.readAccount(ctx, tx, studentID, true)
		if err != nil {
			return err
		}

		if err := updateFn(account); err != nil {
			return err
		}

		if err := r.writeAccount(ctx, tx, account); err != nil {
			return err
		}
		result = account
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *Repository) writeAccount(ctx context.Context, tx pgx.Tx, account *domain.LoyaltyAccount) error {
	statement := r.db.QueryBuilder.
		Update("loyalty_accounts").
		Set("points_balance", account.PointsBalance).
		Where(sq.Eq{"student_id": account.StudentID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, sql, args...); err != nil {
		return err
	}

	return r.insertTransactions(ctx, tx, account.StudentID, account.NewTransactions())
}

func (r *Repository) insertTransactions(ctx context.Context, tx pgx.Tx, studentID string,
	list []domain.LoyaltyTransaction) error {
	if len(list) == 0 {
		return nil
	}

	statement := r.db.QueryBuilder.
		Insert("loyalty_transactions").
		Columns("student_id", "type", "points", "description", "created_at")
	for _, t := range list {
		statement = statement.Values(studentID, t.Type, t.Points, t.Description, t.Timestamp)
	}

	sql, args, err := statement.ToSql()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, sql, args...)
	return err
}
