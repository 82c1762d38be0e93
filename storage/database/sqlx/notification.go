package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/njitshpe/shpe-app-sub007/core"
	"github.com/njitshpe/shpe-app-sub007/core/notification"
)

type notificationRepository struct {
	baseRepository
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(exec core.DBExecutor) *notificationRepository {
	return &notificationRepository{baseRepository{exec: exec}}
}

// CreateNotifications inserts all rows in a single transaction unless exec is already one.
func (repo notificationRepository) CreateNotifications(ctx context.Context, ns []notification.Notification, exec ...core.DBExecutor) error {
	if len(ns) == 0 {
		return nil
	}
	insert := func(ex core.DBExecutor) error {
		q := ex.Rebind(`
			INSERT INTO notifications (id, member_id, kind, title, body, data, created_at, read_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		for _, n := range ns {
			data := n.Data
			if data == "" {
				data = "{}"
			}
			if _, err := ex.ExecContext(ctx, q, n.ID, n.MemberID, n.Kind, n.Title, n.Body, data, n.CreatedAt.UTC(), n.ReadAt); err != nil {
				return errors.Wrap(err, "inserting notification")
			}
		}
		return nil
	}

	ex := repo.getExec(exec)
	if db, ok := ex.(core.DB); ok {
		return core.WithTx(ctx, db, func(tx core.DBTransactor) error {
			return insert(tx)
		})
	}
	return insert(ex)
}

func (repo notificationRepository) QueryNotifications(ctx context.Context, memberID string, limit int, exec ...core.DBExecutor) ([]notification.Notification, error) {
	ex := repo.getExec(exec)
	ns := make([]notification.Notification, 0)
	q := ex.Rebind(`
		SELECT id, member_id, kind, title, body, data, created_at, read_at
		FROM notifications WHERE member_id = ?
		ORDER BY created_at DESC, id DESC LIMIT ?`)
	if err := ex.SelectContext(ctx, &ns, q, memberID, limit); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	return ns, nil
}
