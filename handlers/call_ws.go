package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/eylulcan/amora/services"
	"github.com/eylulcan/amora/ws"
)

// bearerProtocol, sinyal kanalının auth subprotocol adı.
// İstemci handshake'te şunu gönderir:
//
//	Sec-WebSocket-Protocol: bearer, <access_token>
//
// Query parameter yerine subprotocol: token URL'de görünmez, access
// log'lara ve proxy cache'lerine sızmaz.
const bearerProtocol = "bearer"

// CallWSHandler, arama sinyalleşmesi WebSocket endpoint'i.
type CallWSHandler struct {
	registry  *ws.Registry
	calls     *services.CallService
	manager   *services.CallSignalManager
	validator services.TokenValidator

	// iceServers: call.init snapshot'ında istemciye verilen STUN/TURN URL'leri.
	iceServers []string
}

// NewCallWSHandler, constructor.
func NewCallWSHandler(
	registry *ws.Registry,
	calls *services.CallService,
	manager *services.CallSignalManager,
	validator services.TokenValidator,
	iceServers []string,
) *CallWSHandler {
	return &CallWSHandler{
		registry:   registry,
		calls:      calls,
		manager:    manager,
		validator:  validator,
		iceServers: iceServers,
	}
}

// bearerToken, Sec-WebSocket-Protocol header'ından token'ı çıkarır.
// Beklenen format: "bearer, <token>". Bulunamazsa boş döner.
func bearerToken(r *http.Request) string {
	protocols := websocket.Subprotocols(r)
	for i, p := range protocols {
		if strings.EqualFold(p, bearerProtocol) && i+1 < len(protocols) {
			return protocols[i+1]
		}
	}
	return ""
}

// HandleConnection — GET /ws/call (subprotocol auth)
//
// Doğrulama upgrade'den ÖNCE yapılır: geçersiz token HTTP 401 alır,
// WS bağlantısı hiç kurulmaz. Upgrade yanıtında yalnızca "bearer"
// subprotocol'ü seçilir — token yanıt header'ında yankılanmaz.
func (h *CallWSHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		http.Error(w, "missing bearer subprotocol", http.StatusUnauthorized)
		return
	}
	claims, err := h.validator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(w, r, http.Header{
		"Sec-WebSocket-Protocol": {bearerProtocol},
	})
	if err != nil {
		log.Printf("[call] upgrade failed: %v", err)
		return
	}

	channel := ws.NewChannel(conn)
	h.registry.Register(userID, channel)
	defer func() {
		h.registry.Unregister(userID, channel)
		_ = channel.Close()
		// Kullanıcının BAŞKA sinyal bağlantısı kalmadıysa yaşayan
		// araması failed/peer_disconnected ile kapatılır.
		if !h.registry.IsOnline(userID) {
			h.calls.HandleDisconnect(userID)
		}
	}()

	// call.init: oturum snapshot'ı + ICE konfigürasyonu.
	// Reconnect eden istemci devam eden aramasını buradan öğrenir.
	session, activeCall := h.calls.Snapshot(userID)
	initFields := map[string]any{
		"user_id":     userID,
		"state":       session.State,
		"ice_servers": h.iceServers,
	}
	if activeCall != nil {
		initFields["call"] = activeCall
	}
	if err := channel.WriteJSON(ws.CallPayload(ws.CallTypeInit, initFields)); err != nil {
		log.Printf("[call] init write failed for %s: %v", userID, err)
		return
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[call] read error for %s: %v", userID, err)
			}
			return
		}

		msg, err := ws.ParseCallMessage(raw)
		if err != nil {
			h.sendCallError(channel, parseErrorCode(err), err.Error())
			continue
		}
		if hb, ok := msg.(*ws.CallHeartbeat); ok {
			h.calls.Heartbeat(userID, hb)
			if err := channel.WriteJSON(ws.CallPayload(ws.CallTypeHeartbeatAck, map[string]any{
				"call_id": hb.CallID,
			})); err != nil {
				log.Printf("[call] heartbeat ack write failed for %s: %v", userID, err)
			}
			continue
		}
		if err := h.dispatch(r.Context(), userID, msg); err != nil {
			if ce, ok := err.(*services.CallError); ok {
				h.sendCallError(channel, ce.Code, ce.Message)
			} else {
				h.sendCallError(channel, services.CallCodeInternal, "internal error in call handling")
			}
		}
	}
}

// parseErrorCode, çözülemeyen frame için hata kodunu seçer: type alanı
// tanınmıyorsa unknown_type, JSON/alan hatalarında invalid_message.
func parseErrorCode(err error) string {
	if errors.Is(err, ws.ErrUnknownSignalType) {
		return services.CallCodeUnknownType
	}
	return services.CallCodeInvalidMessage
}

func (h *CallWSHandler) dispatch(ctx context.Context, userID string, msg any) error {
	switch m := msg.(type) {
	case *ws.CallInvite:
		_, err := h.calls.Invite(ctx, userID, m)
		return err
	case *ws.CallAnswer:
		return h.calls.Answer(userID, m)
	case *ws.CallReject:
		return h.calls.Reject(userID, m)
	case *ws.CallCancel:
		return h.calls.Cancel(userID, m)
	case *ws.CallEnd:
		return h.calls.End(userID, m)
	case *ws.WebRTCOffer:
		return h.calls.RelayOffer(userID, m)
	case *ws.WebRTCAnswer:
		return h.calls.RelayAnswer(userID, m)
	case *ws.ICECandidate:
		return h.calls.RelayICE(userID, m)
	}
	return nil
}

func (h *CallWSHandler) sendCallError(channel ws.Channel, code, message string) {
	if err := channel.WriteJSON(ws.CallErrorPayload(code, message)); err != nil {
		log.Printf("[call] error frame write failed: %v", err)
	}
}
