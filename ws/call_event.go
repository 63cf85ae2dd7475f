package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/eylulcan/amora/pkg"
)

// ErrUnknownSignalType: frame'in JSON'ı geçerli ama type alanı
// tanınmıyor. Handler bunu bozuk JSON'dan ayrı bir hata koduyla iletir.
var ErrUnknownSignalType = errors.New("unknown signal type")

// Sinyal kanalının mesaj tipleri. Her frame {"type": "...", ...} zarfındadır.
const (
	CallTypeInvite    = "call.invite"
	CallTypeAnswer    = "call.answer"
	CallTypeReject    = "call.reject"
	CallTypeCancel    = "call.cancel"
	CallTypeEnd       = "call.end"
	CallTypeHeartbeat = "call.heartbeat"
	CallTypeOffer     = "webrtc.offer"
	CallTypeAnswerSDP = "webrtc.answer"
	CallTypeICE       = "webrtc.ice"
)

// Sunucudan istemciye giden sinyal tipleri.
const (
	CallTypeInit         = "call.init"
	CallTypeHeartbeatAck = "call.heartbeat_ack"
	CallTypeIncoming     = "call.incoming"
	CallTypeInviteAck    = "call.invite_ack"
	CallTypeAccepted     = "call.accepted"
	CallTypeRejected     = "call.rejected"
	CallTypeCanceled     = "call.canceled"
	CallTypeEnded        = "call.ended"
	CallTypeFailed       = "call.failed"
	CallTypeError        = "call.error"
)

// CallInvite, yeni çağrı başlatma isteği.
type CallInvite struct {
	TargetID  string `json:"target_id"`
	MediaType string `json:"media_type"`
	ContextID string `json:"context_id,omitempty"`
}

// CallAnswer, callee'nin çağrıyı kabulü.
type CallAnswer struct {
	CallID string `json:"call_id"`
}

// CallReject, callee'nin çağrıyı reddi.
type CallReject struct {
	CallID string `json:"call_id"`
	Reason string `json:"reason,omitempty"`
}

// CallCancel, caller'ın çalan çağrıyı iptali.
type CallCancel struct {
	CallID string `json:"call_id"`
}

// CallEnd, taraflardan birinin aktif çağrıyı bitirmesi.
type CallEnd struct {
	CallID string `json:"call_id"`
	Reason string `json:"reason,omitempty"`
}

// CallHeartbeat, aktif çağrı sırasında canlılık sinyali.
type CallHeartbeat struct {
	CallID string `json:"call_id"`
}

// WebRTCOffer, caller'dan callee'ye SDP offer'ı.
type WebRTCOffer struct {
	CallID  string `json:"call_id"`
	SDP     string `json:"sdp"`
	SDPType string `json:"sdp_type"`
}

// WebRTCAnswer, callee'den caller'a SDP answer'ı.
type WebRTCAnswer struct {
	CallID  string `json:"call_id"`
	SDP     string `json:"sdp"`
	SDPType string `json:"sdp_type"`
}

// ICECandidate, iki taraf arasında relay edilen ICE adayı.
// SDPMid ve SDPMLineIndex pointer: istemci null gönderebilir,
// null ile sıfır değeri ayırt edilmeli.
type ICECandidate struct {
	CallID        string  `json:"call_id"`
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdp_mid,omitempty"`
	SDPMLineIndex *int    `json:"sdp_mline_index,omitempty"`
}

type callEnvelope struct {
	Type string `json:"type"`
}

// ParseCallMessage, ham sinyal frame'ini tipli bir mesaja çözer.
//
// Dönen değer pointer tipli variant'lardan biridir: *CallInvite,
// *CallAnswer, *CallReject, *CallCancel, *CallEnd, *CallHeartbeat,
// *WebRTCOffer, *WebRTCAnswer, *ICECandidate.
func ParseCallMessage(raw []byte) (any, error) {
	var env callEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON", pkg.ErrInvalidInput)
	}

	var dst any
	switch env.Type {
	case CallTypeInvite:
		dst = &CallInvite{}
	case CallTypeAnswer:
		dst = &CallAnswer{}
	case CallTypeReject:
		dst = &CallReject{}
	case CallTypeCancel:
		dst = &CallCancel{}
	case CallTypeEnd:
		dst = &CallEnd{}
	case CallTypeHeartbeat:
		dst = &CallHeartbeat{}
	case CallTypeOffer:
		dst = &WebRTCOffer{}
	case CallTypeAnswerSDP:
		dst = &WebRTCAnswer{}
	case CallTypeICE:
		dst = &ICECandidate{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignalType, env.Type)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s", pkg.ErrInvalidInput, env.Type)
	}
	return dst, nil
}

// CallPayload, bir sinyal frame'i kurar: {"type": t, ...fields}.
func CallPayload(t string, fields map[string]any) map[string]any {
	p := map[string]any{"type": t}
	for k, v := range fields {
		p[k] = v
	}
	return SafePayload(p)
}

// CallErrorPayload, sinyal kanalındaki hata frame'i.
// code, istemcinin programatik olarak ayırt ettiği kısa tanımlayıcıdır.
func CallErrorPayload(code, message string) map[string]any {
	return map[string]any{
		"type":    CallTypeError,
		"code":    code,
		"message": message,
	}
}
