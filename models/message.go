// Package models — Message domain modeli.
//
// Mesaj yaşam döngüsü:
// 1. Gönderen WS üzerinden "message" event'i yollar → DB'ye is_delivered=false kaydedilir.
// 2. Alıcının canlı bağlantısı varsa anında push edilir → is_delivered=true.
// 3. Alıcı offline'sa mesaj bekler; bir sonraki bağlantıda drain ile teslim edilir.
// 4. Alıcı "read_receipt" gönderdiğinde is_read=true olur.
//
// is_delivered tam olarak bir kez true'ya döner — hangi teslim yolu (canlı push
// veya reconnect drain) önce başarılı olursa o kazanır.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MessageType, mesaj içeriğinin türünü temsil eden typed constant.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeAudio  MessageType = "audio"
	MessageTypeVideo  MessageType = "video"
	MessageTypeSystem MessageType = "system"
)

// Valid, bilinen bir mesaj türü olup olmadığını kontrol eder.
func (t MessageType) Valid() bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeAudio, MessageTypeVideo, MessageTypeSystem:
		return true
	}
	return false
}

// Message, iki kullanıcı arasındaki tek bir mesajı temsil eder.
type Message struct {
	ID          string      `json:"id"`
	SenderID    string      `json:"sender_id"`
	ReceiverID  string      `json:"receiver_id"`
	Content     string      `json:"content"`
	Type        MessageType `json:"message_type"`
	MediaID     *string     `json:"media_id"` // Nullable — text mesajlarda nil
	IsDelivered bool        `json:"is_delivered"`
	IsRead      bool        `json:"is_read"`
	AIGenerated bool        `json:"ai_generated"` // AI önerisinden seçilmiş mesaj mı
	CreatedAt   time.Time   `json:"created_at"`
}

// MessageReaction, bir mesaja verilen emoji tepkisini temsil eder.
// Her (message_id, user_id) çifti için en fazla bir satır tutulur —
// aynı kullanıcı tepkisini değiştirirse satır güncellenir (upsert).
type MessageReaction struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Reaction  string    `json:"reaction"`
	CreatedAt time.Time `json:"created_at"`
}

const maxMessageContentLength = 4000

// CreateMessageRequest, WS "message" frame'inden gelen yeni mesaj isteği.
// İçerik türü message_type alanında taşınır — zarf anahtarı "type" ile
// çakışmaz.
type CreateMessageRequest struct {
	ReceiverID string      `json:"receiver_id"`
	Content    string      `json:"content"`
	Type       MessageType `json:"message_type"`
	MediaID    *string     `json:"media_id,omitempty"`
}

// Validate, mesaj isteğini doğrular.
// Boş content sadece text mesajlar için reddedilir — medya mesajları
// (image/audio/video) caption'sız gönderilebilir.
func (r *CreateMessageRequest) Validate() error {
	if r.ReceiverID == "" {
		return fmt.Errorf("receiver_id is required")
	}
	if r.Type == "" {
		r.Type = MessageTypeText
	}
	if !r.Type.Valid() {
		return fmt.Errorf("invalid message type: %s", r.Type)
	}
	r.Content = strings.TrimSpace(r.Content)
	if r.Type == MessageTypeText && r.Content == "" {
		return fmt.Errorf("empty message content")
	}
	if utf8.RuneCountInString(r.Content) > maxMessageContentLength {
		return fmt.Errorf("message content exceeds %d characters", maxMessageContentLength)
	}
	return nil
}
