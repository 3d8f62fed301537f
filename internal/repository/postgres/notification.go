package postgres

import (
	"context"
	"fmt"

	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository"
)

type notificationRepository struct {
	gw *Gateway
}

func NewNotificationRepository(gw *Gateway) repository.NotificationRepository {
	return &notificationRepository{gw: gw}
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]*model.Notification, error) {
	query := `SELECT id, user_id, read, content FROM public.notification WHERE user_id = $1 ORDER BY id DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	notifications := []*model.Notification{}
	if err := r.gw.Select(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := r.gw.Exec(ctx, `UPDATE public.notification SET read = true WHERE user_id = $1 AND read = false`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	query := `
		INSERT INTO public.notification (user_id, read, content)
		VALUES ($1, false, $2)
		RETURNING id, user_id, read, content`
	if err := r.gw.Get(ctx, notification, query, notification.UserID, notification.Content); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}
