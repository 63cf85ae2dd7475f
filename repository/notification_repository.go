package repository

import (
	"context"

	"github.com/eylulcan/amora/models"
)

// NotificationRepository, bildirim kalıcılığı için interface.
//
// Replay kriteri TEK'tir: pushed_at IS NULL. Okunmuşluk (is_read)
// replay'i etkilemez — kullanıcı bildirimi başka cihazda okumuş olsa
// bile push edilmemişse reconnect'te tekrar gönderilir.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// PendingForRecipient, pushed_at NULL olan bildirimleri created_at ASC döner.
	PendingForRecipient(ctx context.Context, recipientID string) ([]models.Notification, error)
	// MarkPushed, başarılı socket yazımından sonra pushed_at'i doldurur.
	MarkPushed(ctx context.Context, notificationID string) error
	// List, kullanıcının bildirimlerini yeniden eskiye sayfalayarak döner.
	List(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error)
	// MarkRead, verilen bildirimleri okundu işaretler. İdempotent.
	MarkRead(ctx context.Context, recipientID string, notificationIDs []string) error
}
