package ws

import (
	"log"
)

// EventPublisher, servis katmanının event push etmek için kullandığı interface.
//
// Dependency Inversion: servisler Dispatcher'ın somut struct'ına değil bu
// interface'e bağımlıdır. Testlerde kaydedici mock publisher'lar kullanılır.
type EventPublisher interface {
	// Send, payload'ı kullanıcının tüm canlı kanallarına yazar.
	// En az bir yazma başarılıysa true döner; false = alıcı offline,
	// çağıran kalıcı fallback'e güvenmelidir.
	Send(userID string, payload any) bool

	// Broadcast, payload'ı kayıtlı TÜM kullanıcılara gönderir.
	// Sadece operasyonel sinyaller için (bakım duyurusu vb.).
	Broadcast(payload any)
}

// Dispatcher, Registry üstünde teslimat yapan fan-out bileşeni.
//
// Self-healing: bir kanala yazma hatası teslimatı durdurmaz — kanal
// stale sayılır, registry'den çıkarılır ve kapatılır. Stale kanallar
// asla birikmez; başka hiçbir yerde temizlik gerekmez.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher, verilen registry üstünde çalışan bir Dispatcher oluşturur.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Send, sanitize edilmiş payload'ı kullanıcının tüm kanallarına yazar.
func (d *Dispatcher) Send(userID string, payload any) bool {
	channels := d.registry.Connections(userID)
	if len(channels) == 0 {
		return false
	}

	// Bir kez sanitize et — kanal başına değil.
	safe := Sanitize(payload)

	sent := false
	for _, ch := range channels {
		if err := ch.WriteJSON(safe); err != nil {
			log.Printf("[ws] pruning stale channel for %s: %v", userID, err)
			d.registry.Unregister(userID, ch)
			_ = ch.Close()
			continue
		}
		sent = true
	}
	return sent
}

// Broadcast, payload'ı kayıtlı her kullanıcıya gönderir.
func (d *Dispatcher) Broadcast(payload any) {
	for _, userID := range d.registry.OnlineUserIDs() {
		d.Send(userID, payload)
	}
}
