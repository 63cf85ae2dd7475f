package ws

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
)

// Sohbet kanalının event tipleri.
//
// Wire format: {"type": "...", ...alanlar}. "type" alanı yoksa mesaj
// düz bir CreateMessageRequest olarak kabul edilir — eski istemciler
// zarf kullanmadan doğrudan mesaj gönderir. Bildirim kanalı farklıdır:
// onun zarfı "event" anahtarını kullanır (NotificationPayload).
const (
	EventMessage     = "message"
	EventReadReceipt = "read_receipt"
	EventReaction    = "reaction"
	EventAIRequest   = "ai_request"
	EventAISelected  = "ai_selected"
)

// Sunucudan istemciye giden event tipleri.
const (
	EventDeliveryReceipt = "delivery_receipt"
	EventAISuggestions   = "ai_suggestions"
	EventError           = "error"
	EventNotification    = "notification"
	EventHeartbeat       = "heartbeat"
)

// ReadReceiptEvent, alıcının okudum bildirimi. Mesaj ID'leri batch gelir.
type ReadReceiptEvent struct {
	MessageIDs []string `json:"message_ids"`
}

// ReactionEvent, bir mesaja emoji tepkisi.
type ReactionEvent struct {
	MessageID string `json:"message_id"`
	Reaction  string `json:"reaction"`
}

// AIRequestEvent, mevcut bir mesaj için yanıt önerisi isteği.
type AIRequestEvent struct {
	OriginalMessageID string `json:"original_message_id"`
	Tone              string `json:"tone,omitempty"`
}

// AISelectedEvent, istemcinin seçtiği AI önerisinin mesaj olarak gönderimi.
type AISelectedEvent struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
}

// envelope, gelen frame'in sadece type alanını okumak için kullanılır.
type envelope struct {
	Type string `json:"type"`
}

// DecodeChatEvent, ham WebSocket frame'ini tipli bir event'e çözer.
//
// Dönen değer şunlardan biridir: *models.CreateMessageRequest,
// *ReadReceiptEvent, *ReactionEvent, *AIRequestEvent, *AISelectedEvent.
// Bozuk JSON veya bilinmeyen event tipi pkg.ErrInvalidInput ile sarılır;
// handler bunu bağlantıyı düşürmeden error frame'i olarak iletir.
func DecodeChatEvent(raw []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON", pkg.ErrInvalidInput)
	}

	switch env.Type {
	case "", EventMessage:
		var req models.CreateMessageRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: failed to decode message", pkg.ErrInvalidInput)
		}
		return &req, nil
	case EventReadReceipt:
		var ev ReadReceiptEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: failed to decode read_receipt", pkg.ErrInvalidInput)
		}
		if len(ev.MessageIDs) == 0 {
			return nil, fmt.Errorf("%w: message_ids is empty", pkg.ErrInvalidInput)
		}
		return &ev, nil
	case EventReaction:
		var ev ReactionEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: failed to decode reaction", pkg.ErrInvalidInput)
		}
		if ev.MessageID == "" || ev.Reaction == "" {
			return nil, fmt.Errorf("%w: message_id and reaction are required", pkg.ErrInvalidInput)
		}
		return &ev, nil
	case EventAIRequest:
		var ev AIRequestEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: failed to decode ai_request", pkg.ErrInvalidInput)
		}
		if ev.OriginalMessageID == "" {
			return nil, fmt.Errorf("%w: original_message_id is required", pkg.ErrInvalidInput)
		}
		return &ev, nil
	case EventAISelected:
		var ev AISelectedEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, fmt.Errorf("%w: failed to decode ai_selected", pkg.ErrInvalidInput)
		}
		if ev.ReceiverID == "" || ev.Content == "" {
			return nil, fmt.Errorf("%w: receiver_id and content are required", pkg.ErrInvalidInput)
		}
		return &ev, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", pkg.ErrInvalidInput, env.Type)
	}
}

// MessagePayload, bir mesajın WS üstünden giden temsilini kurar.
// MediaURL sadece media'lı mesajlarda dolu gelir.
func MessagePayload(m *models.Message, mediaURL string) map[string]any {
	p := map[string]any{
		"type":         EventMessage,
		"id":           m.ID,
		"sender_id":    m.SenderID,
		"receiver_id":  m.ReceiverID,
		"content":      m.Content,
		"message_type": m.Type,
		"is_delivered": m.IsDelivered,
		"is_read":      m.IsRead,
		"ai_generated": m.AIGenerated,
		"created_at":   m.CreatedAt,
	}
	if m.MediaID != nil {
		p["media_id"] = *m.MediaID
	}
	if mediaURL != "" {
		p["media_url"] = mediaURL
	}
	return SafePayload(p)
}

// DeliveryReceiptPayload, gönderene giden "mesajın teslim edildi" bildirimi.
func DeliveryReceiptPayload(messageID, receiverID string) map[string]any {
	return SafePayload(map[string]any{
		"type":         EventDeliveryReceipt,
		"message_id":   messageID,
		"receiver_id":  receiverID,
		"delivered_at": time.Now().UTC(),
	})
}

// ReadReceiptPayload, gönderene giden "mesajların okundu" bildirimi.
func ReadReceiptPayload(messageIDs []string, readerID string) map[string]any {
	return SafePayload(map[string]any{
		"type":        EventReadReceipt,
		"message_ids": messageIDs,
		"reader_id":   readerID,
		"read_at":     time.Now().UTC(),
	})
}

// ReactionPayload, her iki tarafa giden tepki bildirimi.
func ReactionPayload(r *models.MessageReaction) map[string]any {
	return SafePayload(map[string]any{
		"type":       EventReaction,
		"id":         r.ID,
		"message_id": r.MessageID,
		"user_id":    r.UserID,
		"reaction":   r.Reaction,
		"created_at": r.CreatedAt,
	})
}

// AISuggestionsPayload, AI öneri listesini isteyen tarafa geri taşır.
func AISuggestionsPayload(originalMessageID string, suggestions []string) map[string]any {
	return SafePayload(map[string]any{
		"type":                EventAISuggestions,
		"original_message_id": originalMessageID,
		"suggestions":         suggestions,
	})
}

// ErrorPayload, hatayı bağlantıyı düşürmeden istemciye iletir.
func ErrorPayload(detail string) map[string]any {
	return map[string]any{
		"type":   EventError,
		"detail": detail,
	}
}

// NotificationPayload, bildirim kanalının zarf formatı: {"event","data"}.
func NotificationPayload(n *models.Notification) map[string]any {
	data := map[string]any{
		"id":           n.ID,
		"type":         n.Type,
		"recipient_id": n.RecipientID,
		"is_read":      n.IsRead,
		"created_at":   n.CreatedAt,
	}
	if n.ActorID != nil {
		data["actor_id"] = *n.ActorID
	}
	if n.ActorName != nil {
		data["actor_name"] = *n.ActorName
	}
	if n.TargetID != nil {
		data["target_id"] = *n.TargetID
	}
	if n.ConversationID != nil {
		data["conversation_id"] = *n.ConversationID
	}
	if n.MessagePreview != nil {
		data["message_preview"] = *n.MessagePreview
	}
	if len(n.Meta) > 0 {
		data["meta"] = n.Meta
	}
	return SafePayload(map[string]any{
		"event": EventNotification,
		"data":  data,
	})
}

// HeartbeatPayload, bildirim kanalının canlılık frame'i. İstemcinin
// ping'ine yanıt olarak ve periyodik olarak gönderilir.
func HeartbeatPayload() map[string]any {
	return map[string]any{
		"event":     EventHeartbeat,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
}
