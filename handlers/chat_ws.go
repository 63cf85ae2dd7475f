// Package handlers — HTTP ve WebSocket giriş noktaları.
//
// Handler'lar decode + kimlik + servis çağrısından fazlasını yapmaz;
// iş mantığı services katmanındadır.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
	"github.com/eylulcan/amora/services"
	"github.com/eylulcan/amora/ws"
)

// upgrader, HTTP bağlantısını WebSocket'e yükseltir.
// CheckOrigin: Production'da domain kontrolü yapılmalı.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ChatWSHandler, birebir mesajlaşma WebSocket endpoint'i.
type ChatWSHandler struct {
	registry  *ws.Registry
	chat      services.ChatService
	validator services.TokenValidator
}

// NewChatWSHandler, constructor.
func NewChatWSHandler(registry *ws.Registry, chat services.ChatService, validator services.TokenValidator) *ChatWSHandler {
	return &ChatWSHandler{registry: registry, chat: chat, validator: validator}
}

// HandleConnection — GET /ws/chat?token=JWT
//
// Tarayıcılar WS handshake'inde Authorization header gönderemediği için
// token query parameter olarak gelir.
//
// Akış:
// 1. Token doğrula → userID
// 2. Upgrade, kanalı registry'ye kaydet
// 3. Bekleyen mesajları drain et (at-least-once teslimatın ikinci yolu)
// 4. Event loop: message / read_receipt / reaction / ai_request / ai_selected
// 5. Kopunca kanalı registry'den düş
func (h *ChatWSHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.validator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	userID := claims.UserID

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[chat] upgrade failed: %v", err)
		return
	}

	channel := ws.NewChannel(conn)
	h.registry.Register(userID, channel)
	defer func() {
		h.registry.Unregister(userID, channel)
		_ = channel.Close()
	}()

	ctx := r.Context()

	// Drain, kayıttan SONRA: böylece drain sırasında gelen yeni mesajlar
	// da aynı kanala ulaşabilir. Çift teslim olabilir, kayıp olamaz.
	if err := h.chat.DrainPending(ctx, userID); err != nil {
		log.Printf("[chat] drain failed for %s: %v", userID, err)
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[chat] read error for %s: %v", userID, err)
			}
			return
		}

		ev, err := ws.DecodeChatEvent(raw)
		if err != nil {
			h.sendError(channel, err)
			continue
		}

		if err := h.dispatch(ctx, userID, ev); err != nil {
			h.sendError(channel, err)
		}
	}
}

func (h *ChatWSHandler) dispatch(ctx context.Context, userID string, ev any) error {
	switch e := ev.(type) {
	case *models.CreateMessageRequest:
		_, err := h.chat.HandleMessage(ctx, userID, e)
		return err
	case *ws.ReadReceiptEvent:
		return h.chat.HandleReadReceipt(ctx, userID, e.MessageIDs)
	case *ws.ReactionEvent:
		return h.chat.HandleReaction(ctx, userID, e)
	case *ws.AIRequestEvent:
		return h.chat.HandleAIRequest(ctx, userID, e)
	case *ws.AISelectedEvent:
		_, err := h.chat.HandleAISelected(ctx, userID, e)
		return err
	}
	return nil
}

// sendError, hatayı bağlantıyı düşürmeden error frame'i olarak iletir.
// Internal hatalar istemciye detay sızdırmaz.
func (h *ChatWSHandler) sendError(channel ws.Channel, err error) {
	detail := err.Error()
	if !errors.Is(err, pkg.ErrInvalidInput) && !errors.Is(err, pkg.ErrBlocked) &&
		!errors.Is(err, pkg.ErrRateLimited) && !errors.Is(err, pkg.ErrForbidden) &&
		!errors.Is(err, pkg.ErrNotFound) {
		detail = "internal error"
	}
	if werr := channel.WriteJSON(ws.ErrorPayload(detail)); werr != nil {
		log.Printf("[chat] error frame write failed: %v", werr)
	}
}
