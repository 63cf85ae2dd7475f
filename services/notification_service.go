package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg/cache"
	"github.com/eylulcan/amora/repository"
	"github.com/eylulcan/amora/ws"
)

// NotificationService, bildirim oluşturma ve teslim pipeline'ı.
//
// At-least-once teslimat: bildirim önce DB'ye pushed_at=NULL yazılır,
// sonra canlı push denenir. Push başarılıysa pushed_at dolar; başarısızsa
// bildirim bekler ve kullanıcının bir sonraki bağlantısında ReplayPending
// ile teslim edilir. Çift teslim mümkündür (yazma başarılı ama MarkPushed
// öncesi crash) — istemci ID ile dedupe eder.
type NotificationService interface {
	CreateAndPush(ctx context.Context, input models.CreateNotificationInput) (*models.Notification, error)
	ReplayPending(ctx context.Context, userID string) error
	List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID string, notificationIDs []string) error
}

// notificationService, NotificationService implementasyonu.
type notificationService struct {
	repo      repository.NotificationRepository
	users     repository.UserRepository
	publisher ws.EventPublisher

	// nameCache: actor display name lookup'ı her bildirimde DB'ye
	// gitmesin diye kısa TTL'li cache.
	nameCache *cache.TTLCache[string, string]
}

// NewNotificationService, constructor — interface döner.
func NewNotificationService(
	repo repository.NotificationRepository,
	users repository.UserRepository,
	publisher ws.EventPublisher,
) NotificationService {
	return &notificationService{
		repo:      repo,
		users:     users,
		publisher: publisher,
		nameCache: cache.New[string, string](5*time.Minute, 10*time.Minute),
	}
}

// CreateAndPush, bildirimi kalıcılaştırır ve canlı push dener.
//
// Push başarısızlığı HATA DEĞİLDİR — bildirim DB'de bekler, replay
// teslim eder. Error yalnızca kalıcılaştırma başarısızsa döner.
func (s *notificationService) CreateAndPush(ctx context.Context, input models.CreateNotificationInput) (*models.Notification, error) {
	n := &models.Notification{
		ID:          uuid.NewString(),
		RecipientID: input.RecipientID,
		Type:        input.Type,
		Meta:        input.Meta,
		CreatedAt:   time.Now().UTC(),
	}
	if input.ActorID != "" {
		n.ActorID = &input.ActorID
	}
	if input.TargetID != "" {
		n.TargetID = &input.TargetID
	}
	if input.ConversationID != "" {
		n.ConversationID = &input.ConversationID
	}
	if input.MessagePreview != "" {
		n.MessagePreview = &input.MessagePreview
	}

	// Actor adı verilmemişse ID üstünden çöz (cache'li).
	name := input.ActorName
	if name == "" && input.ActorID != "" {
		name = s.actorName(ctx, input.ActorID)
	}
	if name != "" {
		n.ActorName = &name
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	if s.publisher.Send(n.RecipientID, ws.NotificationPayload(n)) {
		if err := s.repo.MarkPushed(ctx, n.ID); err != nil {
			log.Printf("[notification] mark pushed failed for %s: %v", n.ID, err)
		}
	}
	return n, nil
}

// ReplayPending, push edilmemiş bildirimleri eski-den yeniye gönderir.
//
// İlk başarısız yazmada durur: socket ölmüşse kalan bildirimleri
// denemek anlamsızdır, sıradaki bağlantı kaldığı yerden devam eder.
func (s *notificationService) ReplayPending(ctx context.Context, userID string) error {
	pending, err := s.repo.PendingForRecipient(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load pending notifications: %w", err)
	}

	for i := range pending {
		n := &pending[i]
		if !s.publisher.Send(userID, ws.NotificationPayload(n)) {
			log.Printf("[notification] replay stopped at %s for %s", n.ID, userID)
			return nil
		}
		if err := s.repo.MarkPushed(ctx, n.ID); err != nil {
			log.Printf("[notification] mark pushed failed for %s: %v", n.ID, err)
		}
	}
	return nil
}

// List, bildirim geçmişini döner. limit sınırlandırılır.
func (s *notificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, userID, limit, offset)
}

// MarkRead, bildirimleri okundu işaretler. İdempotent.
func (s *notificationService) MarkRead(ctx context.Context, userID string, notificationIDs []string) error {
	return s.repo.MarkRead(ctx, userID, notificationIDs)
}

// actorName, kullanıcının görünen adını cache üstünden çözer.
// Kullanıcı bulunamazsa boş döner — bildirim adsız gider, hata olmaz.
func (s *notificationService) actorName(ctx context.Context, actorID string) string {
	if name, ok := s.nameCache.Get(actorID); ok {
		return name
	}
	u, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return ""
	}
	s.nameCache.Set(actorID, u.FullName)
	return u.FullName
}
