package repository

import (
	"context"

	"github.com/Feighth-arts/glam-sub000/internal/db"
	"github.com/Feighth-arts/glam-sub000/internal/domain"
)

type NotificationRepository struct {
	DB *db.Postgres
}

type CreateNotificationInput struct {
	UserID  int64
	Title   string
	Message string
	Type    domain.NotificationType
}

func (r NotificationRepository) Create(ctx context.Context, in CreateNotificationInput) (*domain.Notification, error) {
	var n domain.Notification
	err := r.DB.Pool.QueryRow(ctx, `
		INSERT INTO notifications (user_id, title, message, type, created_at)
		VALUES ($1,$2,$3,$4, now())
		RETURNING id, user_id, title, message, type, created_at, read_at
	`, in.UserID, in.Title, in.Message, string(in.Type)).Scan(
		&n.ID, &n.UserID, &n.Title, &n.Message, (*string)(&n.Type), &n.CreatedAt, &n.ReadAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r NotificationRepository) List(ctx context.Context, userID int64, limit int) ([]domain.Notification, error) {
	rows, err := r.DB.Pool.Query(ctx, `
		SELECT id, user_id, title, message, type, created_at, read_at
		FROM notifications
		WHERE deleted_at IS NULL AND user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, (*string)(&n.Type), &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

func (r NotificationRepository) MarkRead(ctx context.Context, userID, id int64) error {
	tag, err := r.DB.Pool.Exec(ctx, `
		UPDATE notifications SET read_at = now()
		WHERE id=$1 AND user_id=$2 AND deleted_at IS NULL AND read_at IS NULL
	`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
