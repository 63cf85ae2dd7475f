package ws

import (
	"log"
	"sync"
)

// Registry, userID → canlı Channel set haritasını tutan bağlantı kayıt defteri.
//
// map[string]map[Channel]bool — Go'da set yoktur, map[Channel]bool kullanılır;
// bool değeri her zaman true'dur, sadece varlık kontrolü içindir. Bir
// kullanıcının birden fazla entry'si olabilir (telefon + tarayıcı sekmesi).
//
// Tüm operasyonlar keyfi concurrent çağıranlar altında güvenlidir:
// bucket oluşturma/silme, ekleme/çıkarma ile aynı Lock altında yapılır —
// aksi halde bir kanal kaybedilebilir veya boş bucket sızabilirdi.
//
// Registry saf in-memory state'tir, hiçbir şey persist etmez ve kanal
// lifecycle'ına sahip değildir — kapatma kararını Dispatcher/handler verir.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]map[Channel]bool
}

// NewRegistry, boş bir Registry oluşturur.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]map[Channel]bool)}
}

// Register, bir kanalı kullanıcının bucket'ına ekler.
func (r *Registry) Register(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[userID]; !ok {
		r.channels[userID] = make(map[Channel]bool)
	}
	r.channels[userID][ch] = true

	log.Printf("[ws] channel registered: user=%s (connections: %d)", userID, len(r.channels[userID]))
}

// Unregister, bir kanalı çıkarır; bucket boşaldıysa bucket'ı da siler.
// Kayıtlı olmayan bir kanal için no-op'tur (idempotent) — aynı kanal hem
// yazma hatasından hem disconnect cleanup'ından çıkarılmaya çalışılabilir.
func (r *Registry) Unregister(userID string, ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bucket, ok := r.channels[userID]
	if !ok {
		return
	}
	if _, exists := bucket[ch]; !exists {
		return
	}
	delete(bucket, ch)

	if len(bucket) == 0 {
		delete(r.channels, userID)
		log.Printf("[ws] user fully disconnected: %s", userID)
	} else {
		log.Printf("[ws] channel unregistered: user=%s (remaining: %d)", userID, len(bucket))
	}
}

// Connections, kullanıcının kanallarının snapshot'ını döner.
// Snapshot kopyadır — çağıran iterate ederken registry mutate edilebilir,
// canlı map'e referans sızdırılmaz.
func (r *Registry) Connections(userID string) []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bucket := r.channels[userID]
	if len(bucket) == 0 {
		return nil
	}
	out := make([]Channel, 0, len(bucket))
	for ch := range bucket {
		out = append(out, ch)
	}
	return out
}

// IsOnline, kullanıcının en az bir canlı kanalı olup olmadığını döner.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[userID]) > 0
}

// OnlineUserIDs, en az bir kanalı olan tüm kullanıcı ID'lerini döner.
func (r *Registry) OnlineUserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.channels))
	for userID := range r.channels {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown, tüm kanalları kapatır ve registry'yi boşaltır (graceful shutdown).
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, bucket := range r.channels {
		for ch := range bucket {
			_ = ch.Close()
		}
	}
	r.channels = make(map[string]map[Channel]bool)
	log.Println("[ws] registry shut down, all connections closed")
}
