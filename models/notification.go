// Package models — Notification domain modeli.
//
// Bildirim teslim garantisi at-least-once'tır:
// - Kayıt her zaman pushed_at=NULL ile oluşturulur.
// - Canlı push başarılı olursa pushed_at damgalanır.
// - pushed_at NULL kalan her bildirim, alıcının bir sonraki bağlantısında
//   oluşturulma sırasıyla replay edilir.
//
// Push ile damgalama arasında bir crash olursa aynı bildirim bir kez daha
// gider — client tarafı id ile de-duplicate etmelidir. "pushed_at is null"
// replay seçiminin TEK kriteridir, başka bir flag yoktur.
package models

import "time"

// Bildirim türleri — tetikleyen olaya göre.
// Yeni tür eklemek için sadece sabit eklemek yeterli; pipeline tür-bağımsızdır.
const (
	NotificationTypeLike     = "like"
	NotificationTypeView     = "view"
	NotificationTypeMatch    = "match"
	NotificationTypeMessage  = "message"
	NotificationTypeUnmatch  = "unmatch"
	NotificationTypeReaction = "message_reaction"
)

// Notification, bir kullanıcıya gösterilecek tek bir bildirimi temsil eder.
// pushed_at dışında, push edildikten sonra sadece is_read değişebilir.
type Notification struct {
	ID             string         `json:"id"`
	RecipientID    string         `json:"recipient_id"`
	Type           string         `json:"type"`
	ActorID        *string        `json:"actor_id"`        // Tetikleyen kullanıcı — sistem bildirimlerinde nil
	ActorName      *string        `json:"actor_name"`      // Görünen isim — verilmezse actor_id'den çözülür
	TargetID       *string        `json:"target_id"`       // İkincil kullanıcı referansı (match partneri vb.)
	ConversationID *string        `json:"conversation_id"` // İlgili sohbet — mesaj bildirimleri için
	MessagePreview *string        `json:"message_preview"`
	Meta           map[string]any `json:"meta"` // Tür-özgü serbest alanlar, JSON olarak saklanır
	IsRead         bool           `json:"is_read"`
	CreatedAt      time.Time      `json:"created_at"`
	PushedAt       *time.Time     `json:"pushed_at"` // NULL = henüz canlı push edilmedi → replay seti
}

// CreateNotificationInput, NotificationService.CreateAndPush parametreleri.
// Alanların çoğu opsiyonel — her bildirim türü aynı alt kümeyi kullanmaz.
type CreateNotificationInput struct {
	RecipientID    string
	Type           string
	ActorID        string
	ActorName      string
	TargetID       string
	ConversationID string
	MessagePreview string
	Meta           map[string]any
}
