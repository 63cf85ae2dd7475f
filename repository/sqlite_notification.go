package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eylulcan/amora/models"
)

// sqliteNotificationRepo, NotificationRepository'nin SQLite implementasyonu.
type sqliteNotificationRepo struct {
	db *sql.DB
}

// NewSQLiteNotificationRepo, constructor — interface döner.
func NewSQLiteNotificationRepo(db *sql.DB) NotificationRepository {
	return &sqliteNotificationRepo{db: db}
}

const notificationColumns = "id, recipient_id, type, actor_id, actor_name, target_id, conversation_id, message_preview, meta, is_read, created_at, pushed_at"

func scanNotification(row interface{ Scan(...any) error }) (*models.Notification, error) {
	var n models.Notification
	var actorID, actorName, targetID, convID, preview, meta sql.NullString
	var pushedAt sql.NullTime

	err := row.Scan(&n.ID, &n.RecipientID, &n.Type, &actorID, &actorName,
		&targetID, &convID, &preview, &meta, &n.IsRead, &n.CreatedAt, &pushedAt)
	if err != nil {
		return nil, err
	}

	if actorID.Valid {
		n.ActorID = &actorID.String
	}
	if actorName.Valid {
		n.ActorName = &actorName.String
	}
	if targetID.Valid {
		n.TargetID = &targetID.String
	}
	if convID.Valid {
		n.ConversationID = &convID.String
	}
	if preview.Valid {
		n.MessagePreview = &preview.String
	}
	if pushedAt.Valid {
		t := pushedAt.Time
		n.PushedAt = &t
	}
	if meta.Valid && meta.String != "" {
		// Meta JSON text kolonunda saklanır; bozuksa bildirimi düşürmeyiz.
		_ = json.Unmarshal([]byte(meta.String), &n.Meta)
	}
	return &n, nil
}

// Create, bildirimi pushed_at NULL olarak yazar.
// pushed_at'in dolması yalnızca MarkPushed ile olur.
func (r *sqliteNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	var meta any
	if len(n.Meta) > 0 {
		b, err := json.Marshal(n.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode notification meta: %w", err)
		}
		meta = string(b)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, type, actor_id, actor_name, target_id, conversation_id, message_preview, meta, is_read, created_at, pushed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`,
		n.ID, n.RecipientID, n.Type, n.ActorID, n.ActorName, n.TargetID,
		n.ConversationID, n.MessagePreview, meta, n.IsRead, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// PendingForRecipient, push edilmemiş bildirimleri eski-den yeniye döner.
func (r *sqliteNotificationRepo) PendingForRecipient(ctx context.Context, recipientID string) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE recipient_id = ? AND pushed_at IS NULL ORDER BY created_at ASC",
		recipientID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// MarkPushed, pushed_at'i şimdiki zamana set eder. İdempotent.
func (r *sqliteNotificationRepo) MarkPushed(ctx context.Context, notificationID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET pushed_at = ? WHERE id = ? AND pushed_at IS NULL",
		time.Now().UTC(), notificationID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification pushed: %w", err)
	}
	return nil
}

// List, bildirim geçmişini yeniden eskiye sayfalar.
func (r *sqliteNotificationRepo) List(ctx context.Context, recipientID string, limit, offset int) ([]models.Notification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications WHERE recipient_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?",
		recipientID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	return collectNotifications(rows)
}

// MarkRead, verilen bildirimleri okundu işaretler.
// recipient filtresi ile kullanıcı yalnızca kendi bildirimlerini günceller.
func (r *sqliteNotificationRepo) MarkRead(ctx context.Context, recipientID string, notificationIDs []string) error {
	if len(notificationIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(notificationIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(notificationIDs)+1)
	for _, id := range notificationIDs {
		args = append(args, id)
	}
	args = append(args, recipientID)

	_, err := r.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = 1 WHERE id IN ("+placeholders+") AND recipient_id = ?",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func collectNotifications(rows *sql.Rows) ([]models.Notification, error) {
	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}
