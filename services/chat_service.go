// Package services — İş mantığı katmanı.
//
// Servisler repository interface'leri ve ws.EventPublisher üstünden çalışır;
// handler katmanı yalnızca decode + yetki + servis çağrısı yapar.
package services

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
	"github.com/eylulcan/amora/pkg/ratelimit"
	"github.com/eylulcan/amora/repository"
	"github.com/eylulcan/amora/ws"
)

// AIClient, mesaj yanıtı önerileri üreten dış servise giden interface.
// Gerçek implementasyon dış AI sağlayıcısına HTTP ile gider; testlerde
// sabit öneri dönen fake kullanılır.
type AIClient interface {
	SuggestReplies(ctx context.Context, originalMessage, tone string) ([]string, error)
}

// ChatService, birebir mesajlaşma pipeline'ı.
//
// Teslimat sözleşmesi (at-least-once):
// Mesaj önce DB'ye is_delivered=false yazılır, SONRA canlı push denenir.
// Push başarılıysa is_delivered=true olur ve gönderene delivery_receipt
// gider. Başarısızsa mesaj bekler; alıcının sıradaki bağlantısında
// DrainPending teslim eder. Kayıp yok, çift teslim mümkün — istemci
// mesaj ID'siyle dedupe eder.
type ChatService interface {
	// DrainPending, bağlantı açılır açılmaz bekleyen mesajları
	// created_at sırasıyla teslim eder.
	DrainPending(ctx context.Context, userID string) error
	// HandleMessage, yeni mesajı doğrular, kalıcılaştırır ve teslim dener.
	HandleMessage(ctx context.Context, senderID string, req *models.CreateMessageRequest) (*models.Message, error)
	// HandleReadReceipt, mesajları okundu işaretler ve gönderenlere bildirir.
	HandleReadReceipt(ctx context.Context, readerID string, messageIDs []string) error
	// HandleReaction, tepkiyi upsert eder ve her iki tarafa push eder.
	HandleReaction(ctx context.Context, userID string, ev *ws.ReactionEvent) error
	// HandleAIRequest, mevcut bir mesaj için yanıt önerileri üretir.
	HandleAIRequest(ctx context.Context, userID string, ev *ws.AIRequestEvent) error
	// HandleAISelected, seçilen AI önerisini ai_generated mesaj olarak gönderir.
	HandleAISelected(ctx context.Context, userID string, ev *ws.AISelectedEvent) (*models.Message, error)
}

// chatService, ChatService implementasyonu.
type chatService struct {
	messages      repository.MessageRepository
	blocks        repository.BlockRepository
	media         repository.MediaRepository
	publisher     ws.EventPublisher
	notifications NotificationService
	ai            AIClient
	limiter       *ratelimit.MessageRateLimiter

	// mediaBaseURL: media_id → erişilebilir URL çevirimi için prefix.
	mediaBaseURL string
}

// NewChatService, constructor — interface döner.
// ai nil olabilir: AI özelliği kapalıysa ai_request hata frame'i üretir.
func NewChatService(
	messages repository.MessageRepository,
	blocks repository.BlockRepository,
	media repository.MediaRepository,
	publisher ws.EventPublisher,
	notifications NotificationService,
	ai AIClient,
	limiter *ratelimit.MessageRateLimiter,
	mediaBaseURL string,
) ChatService {
	return &chatService{
		messages:      messages,
		blocks:        blocks,
		media:         media,
		publisher:     publisher,
		notifications: notifications,
		ai:            ai,
		limiter:       limiter,
		mediaBaseURL:  mediaBaseURL,
	}
}

// messagePreviewLength, offline bildirimindeki içerik kesme sınırı.
const messagePreviewLength = 120

// DrainPending, teslim edilmemiş mesajları sırayla gönderir.
//
// İlk başarısız yazmada döngü DURUR: kanal ölmüşse devam etmek hem
// boşunadır hem de sıralamayı bozar (3. mesaj başarısız, 4. başarılıysa
// alıcı 4'ü 3'süz görür). Kalanlar bir sonraki bağlantıyı bekler.
func (s *chatService) DrainPending(ctx context.Context, userID string) error {
	pending, err := s.messages.PendingForReceiver(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load pending messages: %w", err)
	}

	for i := range pending {
		m := &pending[i]
		if !s.publisher.Send(userID, ws.MessagePayload(m, s.mediaURL(ctx, m))) {
			log.Printf("[chat] drain stopped at %s for %s", m.ID, userID)
			return nil
		}
		if err := s.messages.MarkDelivered(ctx, m.ID); err != nil {
			log.Printf("[chat] mark delivered failed for %s: %v", m.ID, err)
			continue
		}
		// Gönderen online ise teslim bilgisini anında görür.
		s.publisher.Send(m.SenderID, ws.DeliveryReceiptPayload(m.ID, userID))
	}
	return nil
}

// HandleMessage, yeni mesaj akışının tamamını yürütür:
// rate limit → validasyon → blok kontrolü → media doğrulama →
// kalıcılaştır → canlı push → (offline ise) bildirim.
func (s *chatService) HandleMessage(ctx context.Context, senderID string, req *models.CreateMessageRequest) (*models.Message, error) {
	return s.createMessage(ctx, senderID, req, false)
}

func (s *chatService) createMessage(ctx context.Context, senderID string, req *models.CreateMessageRequest, aiGenerated bool) (*models.Message, error) {
	if !s.limiter.Allow(senderID) {
		return nil, fmt.Errorf("%w: too many messages, retry in %ds",
			pkg.ErrRateLimited, s.limiter.CooldownSeconds(senderID))
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", pkg.ErrInvalidInput, err)
	}
	if req.ReceiverID == senderID {
		return nil, fmt.Errorf("%w: cannot message yourself", pkg.ErrInvalidInput)
	}

	blocked, err := s.blocks.IsBlockedEither(ctx, senderID, req.ReceiverID)
	if err != nil {
		return nil, fmt.Errorf("failed to check block: %w", err)
	}
	if blocked {
		return nil, fmt.Errorf("%w: messaging is not available between these users", pkg.ErrBlocked)
	}

	// Media'lı mesajda media kaydı var olmalı ve gönderene ait olmalı.
	if req.MediaID != nil {
		med, err := s.media.GetByID(ctx, *req.MediaID)
		if err != nil {
			return nil, fmt.Errorf("%w: media not found", pkg.ErrInvalidInput)
		}
		if med.UserID != senderID {
			return nil, fmt.Errorf("%w: media belongs to another user", pkg.ErrForbidden)
		}
	}

	msg := &models.Message{
		ID:          uuid.NewString(),
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		Content:     req.Content,
		Type:        req.Type,
		MediaID:     req.MediaID,
		AIGenerated: aiGenerated,
		CreatedAt:   time.Now().UTC(),
	}
	return msg, s.persistAndDeliver(ctx, msg)
}

// persistAndDeliver, mesajı yazar, push dener, offline fallback'i işletir.
func (s *chatService) persistAndDeliver(ctx context.Context, msg *models.Message) error {
	if err := s.messages.Create(ctx, msg); err != nil {
		return fmt.Errorf("failed to persist message: %w", err)
	}

	if s.publisher.Send(msg.ReceiverID, ws.MessagePayload(msg, s.mediaURL(ctx, msg))) {
		msg.IsDelivered = true
		if err := s.messages.MarkDelivered(ctx, msg.ID); err != nil {
			log.Printf("[chat] mark delivered failed for %s: %v", msg.ID, err)
		}
		s.publisher.Send(msg.SenderID, ws.DeliveryReceiptPayload(msg.ID, msg.ReceiverID))
		return nil
	}

	// Alıcı offline — kalıcı bildirim düşür, mesaj drain'i bekler.
	if _, err := s.notifications.CreateAndPush(ctx, models.CreateNotificationInput{
		RecipientID:    msg.ReceiverID,
		Type:           models.NotificationTypeMessage,
		ActorID:        msg.SenderID,
		ConversationID: msg.SenderID,
		MessagePreview: truncate(msg.Content, messagePreviewLength),
	}); err != nil {
		log.Printf("[chat] offline notification failed for %s: %v", msg.ID, err)
	}
	return nil
}

// HandleReadReceipt, mesajları okundu işaretler ve her gönderene
// kendi mesajlarının read_receipt'ini push eder. İdempotent: zaten
// okunmuş ID'ler sessizce geçer, tekrar bildirim üretmez.
func (s *chatService) HandleReadReceipt(ctx context.Context, readerID string, messageIDs []string) error {
	// Gönderen bazında grupla — her sender tek frame alır.
	// Zaten okunmuş mesajlar gruba girmez (idempotentlik).
	bySender := make(map[string][]string)
	var toMark []string
	for _, id := range messageIDs {
		m, err := s.messages.GetByID(ctx, id)
		if err != nil {
			continue // bilinmeyen ID sessizce atlanır
		}
		if m.ReceiverID != readerID || m.IsRead {
			continue
		}
		toMark = append(toMark, id)
		bySender[m.SenderID] = append(bySender[m.SenderID], id)
	}
	if len(toMark) == 0 {
		return nil
	}

	if err := s.messages.MarkRead(ctx, toMark, readerID); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	for senderID, ids := range bySender {
		s.publisher.Send(senderID, ws.ReadReceiptPayload(ids, readerID))
	}
	return nil
}

// HandleReaction, tepkiyi upsert eder ve iki tarafa da push eder.
// Karşı taraf offline ise message_reaction bildirimi düşülür.
func (s *chatService) HandleReaction(ctx context.Context, userID string, ev *ws.ReactionEvent) error {
	msg, err := s.messages.GetByID(ctx, ev.MessageID)
	if err != nil {
		return err
	}
	if msg.SenderID != userID && msg.ReceiverID != userID {
		return fmt.Errorf("%w: not a participant of this conversation", pkg.ErrForbidden)
	}

	reaction := &models.MessageReaction{
		ID:        uuid.NewString(),
		MessageID: ev.MessageID,
		UserID:    userID,
		Reaction:  ev.Reaction,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.UpsertReaction(ctx, reaction); err != nil {
		return fmt.Errorf("failed to save reaction: %w", err)
	}

	payload := ws.ReactionPayload(reaction)
	s.publisher.Send(userID, payload)

	peer := msg.SenderID
	if peer == userID {
		peer = msg.ReceiverID
	}
	if !s.publisher.Send(peer, payload) {
		if _, err := s.notifications.CreateAndPush(ctx, models.CreateNotificationInput{
			RecipientID: peer,
			Type:        models.NotificationTypeReaction,
			ActorID:     userID,
			TargetID:    ev.MessageID,
			Meta:        map[string]any{"reaction": ev.Reaction},
		}); err != nil {
			log.Printf("[chat] reaction notification failed: %v", err)
		}
	}
	return nil
}

// HandleAIRequest, orijinal mesaj için yanıt önerileri üretir ve
// isteyen tarafa ai_suggestions frame'i push eder.
func (s *chatService) HandleAIRequest(ctx context.Context, userID string, ev *ws.AIRequestEvent) error {
	if s.ai == nil {
		return fmt.Errorf("%w: AI suggestions are not enabled", pkg.ErrInvalidInput)
	}

	msg, err := s.messages.GetByID(ctx, ev.OriginalMessageID)
	if err != nil {
		return err
	}
	// Öneri yalnızca mesajın ALICISI için üretilir — kendi mesajına
	// yanıt önerisi istemek anlamsızdır.
	if msg.ReceiverID != userID {
		return fmt.Errorf("%w: suggestions are only available for received messages", pkg.ErrForbidden)
	}

	suggestions, err := s.ai.SuggestReplies(ctx, msg.Content, ev.Tone)
	if err != nil {
		return fmt.Errorf("%w: suggestion generation failed", pkg.ErrInternal)
	}

	s.publisher.Send(userID, ws.AISuggestionsPayload(ev.OriginalMessageID, suggestions))
	return nil
}

// HandleAISelected, seçilen öneriyi normal mesaj akışından geçirir;
// tek fark ai_generated bayrağıdır.
func (s *chatService) HandleAISelected(ctx context.Context, userID string, ev *ws.AISelectedEvent) (*models.Message, error) {
	return s.createMessage(ctx, userID, &models.CreateMessageRequest{
		ReceiverID: ev.ReceiverID,
		Content:    ev.Content,
		Type:       models.MessageTypeText,
	}, true)
}

// mediaURL, mesajın media_id'sini erişilebilir URL'e çevirir.
// Media kaydı silinmişse boş döner — mesaj yine teslim edilir.
func (s *chatService) mediaURL(ctx context.Context, m *models.Message) string {
	if m.MediaID == nil || s.mediaBaseURL == "" {
		return ""
	}
	med, err := s.media.GetByID(ctx, *m.MediaID)
	if err != nil {
		return ""
	}
	return s.mediaBaseURL + "/" + med.FilePath
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "…"
}
