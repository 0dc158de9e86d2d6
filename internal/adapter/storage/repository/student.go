package repository

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/MikeRez0/campuscafe/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

func (r *Repository) CreateStudent(ctx context.Context, student *domain.Student,
	account *domain.LoyaltyAccount) (*domain.Student, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		studentSt := r.db.QueryBuilder.
			Insert("students").
			Columns("id", "name", "password", "role", "registered_at").
			Values(student.ID, student.Name, student.Password, student.Role, student.RegisteredAt)

		sql, args, err := studentSt.ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return err
		}

		accountSt := r.db.QueryBuilder.
			Insert("loyalty_accounts").
			Columns("student_id", "points_balance").
			Values(student.ID, account.PointsBalance)

		sql, args, err = accountSt.ToSql()
		if err != nil {
			return err
		}
		if _, err = tx.Exec(ctx, sql, args...); err != nil {
			return err
		}

		return r.insertTransactions(ctx, tx, student.ID, account.NewTransactions())
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrConflictingData
		}
		return nil, err
	}

	return student, nil
}

func (r *Repository) ReadStudent(ctx context.Context, studentID string) (*domain.Student, error) {
	statement := r.db.QueryBuilder.
		Select("id", "name", "password", "role", "registered_at").
		From("students").
		Where(sq.Eq{"id": studentID})

	sql, args, err := statement.ToSql()
	if err != nil {
		return nil, err
	}

	student := domain.Student{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(
		&student.ID,
		&student.Name,
		&student.Password,
		&student.Role,
		&student.RegisteredAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDataNotFound
		}
		return nil, err
	}

	return &student, nil
}
