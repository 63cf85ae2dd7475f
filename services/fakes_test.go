package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
)

func nowUTC() time.Time { return time.Now().UTC() }

// Bu dosya, services testlerinin paylaştığı in-memory fake'leri içerir.
// Repository fake'leri sıralamayı korur — teslim sırası testleri buna dayanır.

// ─── Publisher ───

type sentFrame struct {
	userID  string
	payload any
}

// fakePublisher, ws.EventPublisher'ın kayıt tutan implementasyonu.
// failFor içindeki kullanıcılara yazma "başarısız" döner (offline simülasyonu).
type fakePublisher struct {
	mu      sync.Mutex
	sent    []sentFrame
	failFor map[string]bool

	// failAfter > 0 ise o kadar başarılı yazmadan sonra hepsi başarısız
	// olur — drain'in yarıda kesilmesini simüle eder.
	failAfter int
	wrote     int
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{failFor: make(map[string]bool)}
}

func (p *fakePublisher) Send(userID string, payload any) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failFor[userID] {
		return false
	}
	if p.failAfter > 0 && p.wrote >= p.failAfter {
		return false
	}
	p.wrote++
	p.sent = append(p.sent, sentFrame{userID: userID, payload: payload})
	return true
}

func (p *fakePublisher) Broadcast(payload any) {}

// framesFor, bir kullanıcıya giden payload'ları döner.
func (p *fakePublisher) framesFor(userID string) []map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []map[string]any
	for _, f := range p.sent {
		if f.userID == userID {
			if m, ok := f.payload.(map[string]any); ok {
				out = append(out, m)
			}
		}
	}
	return out
}

// ─── Message repository ───

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []*models.Message
	reactions map[string]*models.MessageReaction // key: message_id+user_id
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{reactions: make(map[string]*models.MessageReaction)}
}

func (r *fakeMessageRepo) Create(_ context.Context, m *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.messages = append(r.messages, &cp)
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id string) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("%w: message not found", pkg.ErrNotFound)
}

func (r *fakeMessageRepo) PendingForReceiver(_ context.Context, receiverID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Message
	for _, m := range r.messages {
		if m.ReceiverID == receiverID && !m.IsDelivered {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkDelivered(_ context.Context, messageID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == messageID {
			m.IsDelivered = true
		}
	}
	return nil
}

func (r *fakeMessageRepo) MarkRead(_ context.Context, messageIDs []string, readerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range messageIDs {
		for _, m := range r.messages {
			if m.ID == id && m.ReceiverID == readerID {
				m.IsRead = true
				m.IsDelivered = true
			}
		}
	}
	return nil
}

func (r *fakeMessageRepo) UpsertReaction(_ context.Context, reaction *models.MessageReaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *reaction
	r.reactions[reaction.MessageID+"|"+reaction.UserID] = &cp
	return nil
}

func (r *fakeMessageRepo) byID(id string) *models.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// ─── Block / user / media repositories ───

type fakeBlockRepo struct {
	blocked map[string]bool // key: "a|b" sıralı
}

func newFakeBlockRepo() *fakeBlockRepo {
	return &fakeBlockRepo{blocked: make(map[string]bool)}
}

func blockKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

func (r *fakeBlockRepo) block(a, b string) { r.blocked[blockKey(a, b)] = true }

func (r *fakeBlockRepo) IsBlockedEither(_ context.Context, a, b string) (bool, error) {
	return r.blocked[blockKey(a, b)], nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	gets  int
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	m := make(map[string]*models.User)
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: user not found", pkg.ErrNotFound)
}

type fakeMediaRepo struct {
	media map[string]*models.Media
}

func newFakeMediaRepo(media ...*models.Media) *fakeMediaRepo {
	m := make(map[string]*models.Media)
	for _, md := range media {
		m[md.ID] = md
	}
	return &fakeMediaRepo{media: m}
}

func (r *fakeMediaRepo) GetByID(_ context.Context, id string) (*models.Media, error) {
	if m, ok := r.media[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: media not found", pkg.ErrNotFound)
}

// ─── Notification repository ───

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*models.Notification
}

func (r *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *fakeNotificationRepo) PendingForRecipient(_ context.Context, recipientID string) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && n.PushedAt == nil {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkPushed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.PushedAt == nil {
			now := nowUTC()
			n.PushedAt = &now
		}
	}
	return nil
}

func (r *fakeNotificationRepo) List(_ context.Context, recipientID string, limit, offset int) ([]models.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].RecipientID == recipientID {
			out = append(out, *r.notifications[i])
		}
	}
	if offset > len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(_ context.Context, recipientID string, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		for _, n := range r.notifications {
			if n.ID == id && n.RecipientID == recipientID {
				n.IsRead = true
			}
		}
	}
	return nil
}

func (r *fakeNotificationRepo) byType(recipientID, typ string) []*models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Notification
	for _, n := range r.notifications {
		if n.RecipientID == recipientID && n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

// ─── AI client ───

type fakeAIClient struct {
	suggestions []string
	calls       int
}

func (c *fakeAIClient) SuggestReplies(_ context.Context, _, _ string) ([]string, error) {
	c.calls++
	return c.suggestions, nil
}
