package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/eylulcan/amora/database"
	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
)

// sqliteMessageRepo, MessageRepository interface'inin SQLite implementasyonu.
type sqliteMessageRepo struct {
	db *sql.DB
}

// NewSQLiteMessageRepo, constructor — interface döner.
func NewSQLiteMessageRepo(db *sql.DB) MessageRepository {
	return &sqliteMessageRepo{db: db}
}

const messageColumns = "id, sender_id, receiver_id, content, message_type, media_id, is_delivered, is_read, ai_generated, created_at"

// scanMessage, tek satırı Message'a okur. media_id NULL olabilir.
func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	var mediaID sql.NullString
	err := row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Type,
		&mediaID, &m.IsDelivered, &m.IsRead, &m.AIGenerated, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if mediaID.Valid {
		m.MediaID = &mediaID.String
	}
	return &m, nil
}

// Create, yeni mesajı yazar. Teslimat bayrakları false başlar —
// gerçek teslimat socket yazımı onaylanınca MarkDelivered ile işlenir.
func (r *sqliteMessageRepo) Create(ctx context.Context, m *models.Message) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, receiver_id, content, message_type, media_id, is_delivered, is_read, ai_generated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.ReceiverID, m.Content, m.Type, m.MediaID,
		m.IsDelivered, m.IsRead, m.AIGenerated, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

// GetByID, ID ile mesaj döner.
func (r *sqliteMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE id = ?", id)

	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return m, nil
}

// PendingForReceiver, alıcının teslim edilmemiş mesajlarını döner.
//
// Sıralama created_at ASC: drain sırasında mesajlar gönderim sırasıyla
// istemciye ulaşır. Silinmiş gönderici mesajları zaten tabloda yoktur —
// ekstra filtre gerekmez.
func (r *sqliteMessageRepo) PendingForReceiver(ctx context.Context, receiverID string) ([]models.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+messageColumns+" FROM messages WHERE receiver_id = ? AND is_delivered = 0 ORDER BY created_at ASC",
		receiverID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// MarkDelivered, mesajı teslim edildi olarak işaretler. İdempotent.
func (r *sqliteMessageRepo) MarkDelivered(ctx context.Context, messageID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE messages SET is_delivered = 1 WHERE id = ?", messageID)
	if err != nil {
		return fmt.Errorf("failed to mark message delivered: %w", err)
	}
	return nil
}

// MarkRead, okundu bildirimindeki tüm mesajları tek transaction'da işaretler.
//
// readerID filtresi önemli: kullanıcı yalnızca KENDİSİNE gelen mesajları
// okundu yapabilir. Zaten okunmuş veya başkasına ait ID'ler sessizce atlanır.
func (r *sqliteMessageRepo) MarkRead(ctx context.Context, messageIDs []string, readerID string) error {
	if len(messageIDs) == 0 {
		return nil
	}

	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		placeholders := strings.Repeat("?,", len(messageIDs))
		placeholders = placeholders[:len(placeholders)-1]

		args := make([]any, 0, len(messageIDs)+1)
		for _, id := range messageIDs {
			args = append(args, id)
		}
		args = append(args, readerID)

		_, err := tx.ExecContext(ctx,
			"UPDATE messages SET is_read = 1, is_delivered = 1 WHERE id IN ("+placeholders+") AND receiver_id = ?",
			args...,
		)
		if err != nil {
			return fmt.Errorf("failed to mark messages read: %w", err)
		}
		return nil
	})
}

// UpsertReaction, mesaj tepkisini ekler veya günceller.
//
// UNIQUE(message_id, user_id) kısıtı üstünde ON CONFLICT: ikinci tepki
// eskisinin üstüne yazılır, kullanıcı başına mesaj başına tek tepki kalır.
func (r *sqliteMessageRepo) UpsertReaction(ctx context.Context, reaction *models.MessageReaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO message_reactions (id, message_id, user_id, reaction, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(message_id, user_id) DO UPDATE SET reaction = excluded.reaction, created_at = excluded.created_at`,
		reaction.ID, reaction.MessageID, reaction.UserID, reaction.Reaction, reaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reaction: %w", err)
	}
	return nil
}
