// Package ws, WebSocket bağlantı yönetimi ve gerçek zamanlı event dağıtımını sağlar.
//
// Mimari:
// - Channel: Tek bir açık bağlantının yazma ucu (interface — test edilebilir)
// - Registry: userID → Channel set haritası (bir kullanıcının birden fazla cihazı olabilir)
// - Dispatcher: Bir payload'ı kullanıcının tüm canlı kanallarına fan-out eder,
//   başarısız kanalları registry'den ayıklar
// - Sanitize: Her gönderimden önce payload'ı transport-safe JSON'a normalize eder
//
// Teslim sözleşmesi:
// Dispatcher.Send en az bir kanal yazması başarılıysa true döner. false
// (kanal yok dahil) "alıcı offline" demektir — çağıran taraf kalıcı
// fallback'e (DB'deki teslim edilmemiş kayıt) güvenmelidir.
package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait: Tek bir WS yazması için üst sınır. Takılı bir client
	// dispatcher döngüsünü süresiz bloklayamaz — deadline aşılırsa yazma
	// hata verir ve kanal stale sayılıp ayıklanır.
	writeWait = 10 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum frame boyutu (byte).
	// SDP offer'ları birkaç KB olabilir; 16KB rahat bir tavan.
	maxMessageSize = 16384
)

// Channel, tek bir açık çift-yönlü bağlantının yazma ucunu temsil eder.
//
// Neden interface?
// Registry ve Dispatcher somut websocket.Conn'a değil bu interface'e
// bağımlıdır — testlerde in-memory sahte kanallar kullanılabilir ve
// transport detayı tek bir implementasyonda kalır.
type Channel interface {
	// WriteJSON, payload'ı bağlantıya yazar. Hata = kanal stale.
	WriteJSON(v any) error
	// Close, alttaki bağlantıyı kapatır.
	Close() error
}

// wsChannel, Channel'ın gorilla/websocket implementasyonu.
//
// gorilla/websocket bir bağlantıya aynı anda birden fazla yazmaya izin
// vermez — mutex tüm WriteJSON çağrılarını serialize eder. Her yazmadan
// önce write deadline yenilenir: yavaş client hızlı şekilde hata üretir.
type wsChannel struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewChannel, kabul edilmiş bir WS bağlantısını Channel'a sarar.
func NewChannel(conn *websocket.Conn) Channel {
	conn.SetReadLimit(maxMessageSize)
	return &wsChannel{conn: conn}
}

func (c *wsChannel) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(v)
}

func (c *wsChannel) Close() error {
	return c.conn.Close()
}
