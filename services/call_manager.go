package services

import (
	"log"
	"sync"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/ws"
)

// CallSignalManager, arama sinyalleşmesinin in-memory durum katmanı.
//
// Üç sorumluluk:
//  1. Kullanıcı başına UserCallSession (idle / ringing / in_call) tutmak.
//  2. Kullanıcı başına lock vermek — state geçişleri yalnızca ilgili
//     kullanıcıların lock'ları altında yapılır (CallService düzenler).
//  3. Sinyal registry'sine frame push etmek.
//
// Sinyal kanalının registry'si sohbet/bildirim registry'sinden AYRIDIR:
// kullanıcının sohbet bağlantısı olması aranabilir olduğu anlamına gelmez.
type CallSignalManager struct {
	mu       sync.Mutex
	sessions map[string]*models.UserCallSession
	locks    map[string]*sync.Mutex

	registry   *ws.Registry
	dispatcher *ws.Dispatcher
}

// NewCallSignalManager, sinyal registry'si üstünde yeni bir manager kurar.
func NewCallSignalManager(registry *ws.Registry) *CallSignalManager {
	return &CallSignalManager{
		sessions:   make(map[string]*models.UserCallSession),
		locks:      make(map[string]*sync.Mutex),
		registry:   registry,
		dispatcher: ws.NewDispatcher(registry),
	}
}

// userLock, kullanıcının lock'unu lazy oluşturup döner.
// Lock'lar hiç silinmez — kullanıcı başına bir mutex kalıcıdır,
// silme/yeniden oluşturma yarışı çıkarmaya değmeyecek kadar küçüktür.
func (m *CallSignalManager) userLock(userID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[userID] = l
	}
	return l
}

// WithUserLock, fn'i kullanıcının lock'u altında çalıştırır.
//
// Birden fazla kullanıcının lock'u gerekiyorsa çağıran SIRALI almalıdır
// (CallService lock'ları userID sırasına göre alır — deadlock önleme).
func (m *CallSignalManager) WithUserLock(userID string, fn func()) {
	l := m.userLock(userID)
	l.Lock()
	defer l.Unlock()
	fn()
}

// WithUserLocks, iki kullanıcının lock'unu deterministik sırada alır.
// userID string sırası kullanılır: (A,B) ve (B,A) aynı sırayla kilitlenir.
func (m *CallSignalManager) WithUserLocks(userA, userB string, fn func()) {
	first, second := userA, userB
	if second < first {
		first, second = second, first
	}
	la, lb := m.userLock(first), m.userLock(second)
	la.Lock()
	defer la.Unlock()
	lb.Lock()
	defer lb.Unlock()
	fn()
}

// Session, kullanıcının oturum snapshot'ını döner. Kayıt yoksa idle döner.
func (m *CallSignalManager) Session(userID string) models.UserCallSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return *s
	}
	return models.UserCallSession{UserID: userID, State: models.UserCallStateIdle}
}

// SetSession, kullanıcının oturumunu yazar.
// Çağıran ilgili kullanıcının lock'unu tutuyor olmalıdır.
func (m *CallSignalManager) SetSession(userID string, state models.UserCallState, callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[userID] = &models.UserCallSession{
		UserID:        userID,
		State:         state,
		CurrentCallID: callID,
	}
}

// ClearSession, oturumu idle'a döndürür — ama YALNIZCA hâlâ verilen
// aramaya bağlıysa. Koşul kritik: eski bir aramanın gecikmiş temizliği,
// kullanıcının bu arada başlattığı YENİ aramanın oturumunu ezmemelidir.
func (m *CallSignalManager) ClearSession(userID, callID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	if !ok || s.CurrentCallID != callID {
		return
	}
	delete(m.sessions, userID)
}

// IsBusy, kullanıcının şu an bir aramada (ringing veya in_call) olup
// olmadığını döner.
func (m *CallSignalManager) IsBusy(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[userID]
	return ok && s.State != models.UserCallStateIdle
}

// IsOnline, kullanıcının canlı sinyal bağlantısı olup olmadığını döner.
func (m *CallSignalManager) IsOnline(userID string) bool {
	return m.registry.IsOnline(userID)
}

// SendToUser, sinyal frame'ini kullanıcının tüm sinyal kanallarına yazar.
func (m *CallSignalManager) SendToUser(userID string, payload any) bool {
	return m.dispatcher.Send(userID, payload)
}

// SendToUsers, aynı frame'i birden fazla kullanıcıya yazar.
func (m *CallSignalManager) SendToUsers(payload any, userIDs ...string) {
	for _, id := range userIDs {
		if !m.dispatcher.Send(id, payload) {
			log.Printf("[call] signal dropped for offline user %s", id)
		}
	}
}
