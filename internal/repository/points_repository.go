package repository

import (
	"context"
	"errors"

	"github.com/Feighth-arts/glam-sub000/internal/db"
	"github.com/Feighth-arts/glam-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrInsufficientPoints is returned when a redemption exceeds the
	// spendable balance.
	ErrInsufficientPoints = errors.New("insufficient points")
	// ErrDuplicateTransaction is returned when an award/redeem for the
	// same (source, reference, type) was already recorded.
	ErrDuplicateTransaction = errors.New("points transaction already recorded")
	// ErrInvalidPoints is returned for non-positive point amounts.
	ErrInvalidPoints = errors.New("points must be positive")
)

// PointsRepository owns the loyalty ledger: the per-user balance row and
// the append-only transaction log. Every balance mutation writes exactly
// one log row in the same transaction; the (source, reference_id, type)
// unique constraint makes each originating event count at most once.
type PointsRepository struct {
	DB *db.Postgres
}

// pgxQuerier is satisfied by both pgxpool.Pool and pgx.Tx.
type pgxQuerier interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PointsEntryParams describes one award, redemption or refund.
type PointsEntryParams struct {
	UserID      int64
	Points      int
	Source      domain.PointsSource
	ReferenceID int64
	Description string
}

func (r PointsRepository) Balance(ctx context.Context, userID int64) (*domain.UserPoints, error) {
	return r.balanceWith(ctx, r.DB.Pool, userID, false)
}

// Redeem atomically checks and decrements the spendable balance and
// appends a redemption log row.
func (r PointsRepository) Redeem(ctx context.Context, p PointsEntryParams) (*domain.UserPoints, error) {
	return r.inTx(ctx, func(tx pgx.Tx) (*domain.UserPoints, error) {
		return r.RedeemWithTx(ctx, tx, p)
	})
}

// Award atomically increments current and lifetime points, recomputes the
// tier from the new lifetime total and appends an earned log row.
func (r PointsRepository) Award(ctx context.Context, p PointsEntryParams) (*domain.UserPoints, error) {
	return r.inTx(ctx, func(tx pgx.Tx) (*domain.UserPoints, error) {
		return r.AwardWithTx(ctx, tx, p)
	})
}

// Refund restores previously redeemed points to the spendable balance.
// Lifetime points and tier are untouched.
func (r PointsRepository) Refund(ctx context.Context, p PointsEntryParams) (*domain.UserPoints, error) {
	return r.inTx(ctx, func(tx pgx.Tx) (*domain.UserPoints, error) {
		return r.RefundWithTx(ctx, tx, p)
	})
}

// RedeemWithTx runs the redemption inside an existing transaction, so a
// caller can tie it to its own writes. The balance row is locked for the
// duration of the transaction.
func (r PointsRepository) RedeemWithTx(ctx context.Context, tx pgx.Tx, p PointsEntryParams) (*domain.UserPoints, error) {
	if p.Points <= 0 {
		return nil, ErrInvalidPoints
	}
	up, err := r.balanceWith(ctx, tx, p.UserID, true)
	if err != nil {
		return nil, err
	}
	if up.CurrentPoints < p.Points {
		return nil, ErrInsufficientPoints
	}
	up.CurrentPoints -= p.Points
	if err := r.saveWith(ctx, tx, up); err != nil {
		return nil, err
	}
	if err := r.appendWith(ctx, tx, p.UserID, domain.PointsRedeemed, -p.Points, p); err != nil {
		return nil, err
	}
	return up, nil
}

func (r PointsRepository) AwardWithTx(ctx context.Context, tx pgx.Tx, p PointsEntryParams) (*domain.UserPoints, error) {
	if p.Points <= 0 {
		return nil, ErrInvalidPoints
	}
	up, err := r.balanceWith(ctx, tx, p.UserID, true)
	if err != nil {
		return nil, err
	}
	up.CurrentPoints += p.Points
	up.LifetimePoints += p.Points
	up.Tier = domain.TierFor(up.LifetimePoints)
	if err := r.saveWith(ctx, tx, up); err != nil {
		return nil, err
	}
	if err := r.appendWith(ctx, tx, p.UserID, domain.PointsEarned, p.Points, p); err != nil {
		return nil, err
	}
	return up, nil
}

func (r PointsRepository) RefundWithTx(ctx context.Context, tx pgx.Tx, p PointsEntryParams) (*domain.UserPoints, error) {
	if p.Points <= 0 {
		return nil, ErrInvalidPoints
	}
	up, err := r.balanceWith(ctx, tx, p.UserID, true)
	if err != nil {
		return nil, err
	}
	up.CurrentPoints += p.Points
	if err := r.saveWith(ctx, tx, up); err != nil {
		return nil, err
	}
	if err := r.appendWith(ctx, tx, p.UserID, domain.PointsRefunded, p.Points, p); err != nil {
		return nil, err
	}
	return up, nil
}

func (r PointsRepository) ListTransactions(ctx context.Context, userID int64, limit int) ([]domain.PointsTransaction, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, user_id, type, points, source, reference_id, description, created_at
		FROM points_transactions
		WHERE user_id=$1
		ORDER BY id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []domain.PointsTransaction
	for rows.Next() {
		var t domain.PointsTransaction
		var typ, src string
		if err := rows.Scan(&t.ID, &t.UserID, &typ, &t.Points, &src, &t.ReferenceID, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = domain.PointsTransactionType(typ)
		t.Source = domain.PointsSource(src)
		items = append(items, t)
	}
	return items, rows.Err()
}

func (r PointsRepository) inTx(ctx context.Context, fn func(pgx.Tx) (*domain.UserPoints, error)) (*domain.UserPoints, error) {
	tx, err := r.DB.Pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	up, err := fn(tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return up, nil
}

func (r PointsRepository) balanceWith(ctx context.Context, q pgxQuerier, userID int64, forUpdate bool) (*domain.UserPoints, error) {
	query := `
		SELECT user_id, current_points, lifetime_points, tier, updated_at
		FROM user_points
		WHERE user_id=$1
	`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var up domain.UserPoints
	var tier string
	if err := q.QueryRow(ctx, query, userID).Scan(&up.UserID, &up.CurrentPoints, &up.LifetimePoints, &tier, &up.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	up.Tier = domain.Tier(tier)
	return &up, nil
}

func (r PointsRepository) saveWith(ctx context.Context, q pgxQuerier, up *domain.UserPoints) error {
	return q.QueryRow(ctx, `
		UPDATE user_points
		SET current_points=$2, lifetime_points=$3, tier=$4, updated_at=now()
		WHERE user_id=$1
		RETURNING updated_at
	`, up.UserID, up.CurrentPoints, up.LifetimePoints, up.Tier).Scan(&up.UpdatedAt)
}

func (r PointsRepository) appendWith(ctx context.Context, q pgxQuerier, userID int64, typ domain.PointsTransactionType, delta int, p PointsEntryParams) error {
	_, err := q.Exec(ctx, `
		INSERT INTO points_transactions (user_id, type, points, source, reference_id, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6, now())
	`, userID, typ, delta, p.Source, p.ReferenceID, p.Description)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return ErrDuplicateTransaction
		}
		return err
	}
	return nil
}
