// Package models — Call domain modeli.
//
// Arama state machine'i:
//
//	ringing → active | rejected | canceled | failed
//	active  → ended | failed
//
// rejected, canceled, ended ve failed terminal'dir — terminal bir arama
// hiçbir answer/reject/cancel/end/relay operasyonu kabul etmez.
//
// Tüm call state ephemeral (in-memory) — DB kaydı yoktur. Sunucu yeniden
// başlatılırsa aktif aramalar temizlenir; client'lar call.init snapshot'ı
// ile yeniden senkronize olur.
package models

import "time"

// MediaType, arama medya türü.
type MediaType string

const (
	MediaTypeAudio MediaType = "audio"
	MediaTypeVideo MediaType = "video"
)

// Valid, bilinen bir medya türü olup olmadığını kontrol eder.
func (t MediaType) Valid() bool {
	return t == MediaTypeAudio || t == MediaTypeVideo
}

// CallState, bir aramanın durumunu temsil eden typed constant.
type CallState string

const (
	CallStateRinging  CallState = "ringing"
	CallStateActive   CallState = "active"
	CallStateEnded    CallState = "ended"
	CallStateRejected CallState = "rejected"
	CallStateCanceled CallState = "canceled"
	CallStateFailed   CallState = "failed"
)

// Terminal, aramanın artık hiçbir geçiş kabul etmediği durumları işaretler.
func (s CallState) Terminal() bool {
	switch s {
	case CallStateEnded, CallStateRejected, CallStateCanceled, CallStateFailed:
		return true
	}
	return false
}

// Call, iki kullanıcı arasındaki tek bir aramayı temsil eder.
// Invite ile oluşturulur; terminal duruma geçip her iki tarafın session'ı
// temizlendiğinde aktif arama tablosundan düşürülür.
type Call struct {
	ID        string    `json:"id"`
	CallerID  string    `json:"caller_id"`
	CalleeID  string    `json:"callee_id"`
	MediaType MediaType `json:"media_type"`
	State     CallState `json:"state"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Peer, verilen katılımcının karşı tarafını döner.
// Katılımcı değilse boş string döner — çağıran taraf kontrol etmelidir.
func (c *Call) Peer(userID string) string {
	switch userID {
	case c.CallerID:
		return c.CalleeID
	case c.CalleeID:
		return c.CallerID
	}
	return ""
}

// UserCallState, bir kullanıcının arama-bağlamındaki durumunu temsil eder.
// Call.State'ten bağımsızdır — kullanıcı perspektifinden tutulur.
type UserCallState string

const (
	UserCallStateIdle    UserCallState = "idle"
	UserCallStateRinging UserCallState = "ringing"
	UserCallStateInCall  UserCallState = "in_call"
)

// UserCallSession, kullanıcı başına tam olarak bir tane tutulan arama oturumu.
// Lazy oluşturulur, sadece o kullanıcının lock'u altında mutate edilir.
//
// Invariant: State != idle ⇒ CurrentCallID dolu ve yaşayan bir Call'u
// gösterir; State == idle ⇒ CurrentCallID boş.
type UserCallSession struct {
	UserID        string        `json:"user_id"`
	State         UserCallState `json:"state"`
	CurrentCallID string        `json:"current_call_id,omitempty"`
}
