package repository

import (
	"context"

	"github.com/eylulcan/amora/models"
)

// MessageRepository, mesaj kalıcılığı için interface.
//
// Teslimat akışı:
//   - Create: yeni mesajı is_delivered=false olarak yaz
//   - PendingForReceiver: alıcının teslim edilmemiş mesajlarını
//     created_at ASC sırasıyla getir (reconnect drain'i için)
//   - MarkDelivered: başarılı socket yazımından sonra işaretle
//   - MarkRead: okundu bildirimindeki tüm ID'leri tek transaction'da işaretle
//
// Reaction:
//   - UpsertReaction: aynı (message_id, user_id) çifti için tekrar tepki
//     eskisinin üstüne yazılır — kullanıcı başına mesaj başına tek tepki
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	GetByID(ctx context.Context, id string) (*models.Message, error)
	PendingForReceiver(ctx context.Context, receiverID string) ([]models.Message, error)
	MarkDelivered(ctx context.Context, messageID string) error
	MarkRead(ctx context.Context, messageIDs []string, readerID string) error
	UpsertReaction(ctx context.Context, r *models.MessageReaction) error
}
