package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eylulcan/amora/services"
	"github.com/eylulcan/amora/ws"
)

// heartbeatInterval, bildirim kanalını proxy/LB timeout'larına karşı
// canlı tutan periyodik frame aralığı.
const heartbeatInterval = 30 * time.Second

// NotificationWSHandler, bildirim WebSocket endpoint'i.
//
// Bu kanal çoğunlukla tek yönlüdür: sunucu push eder, istemci dinler.
// İstemciden gelen her frame ping kabul edilir ve heartbeat ile yanıtlanır.
type NotificationWSHandler struct {
	registry      *ws.Registry
	notifications services.NotificationService
	validator     services.TokenValidator
}

// NewNotificationWSHandler, constructor.
func NewNotificationWSHandler(registry *ws.Registry, notifications services.NotificationService, validator services.TokenValidator) *NotificationWSHandler {
	return &NotificationWSHandler{registry: registry, notifications: notifications, validator: validator}
}

// HandleConnection — GET /ws/notifications?token=JWT
//
// Bağlantı açılır açılmaz push edilmemiş bildirimler replay edilir
// (tek kriter: pushed_at IS NULL). Sonrası canlı push + heartbeat.
func (h *NotificationWSHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
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
		log.Printf("[notification] upgrade failed: %v", err)
		return
	}

	channel := ws.NewChannel(conn)
	h.registry.Register(userID, channel)
	defer func() {
		h.registry.Unregister(userID, channel)
		_ = channel.Close()
	}()

	if err := h.notifications.ReplayPending(r.Context(), userID); err != nil {
		log.Printf("[notification] replay failed for %s: %v", userID, err)
	}

	// Heartbeat goroutine'i — read loop kapanınca done ile durur.
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := channel.WriteJSON(ws.HeartbeatPayload()); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// Read loop: istemciden gelen her frame bir ping sayılır ve
	// heartbeat ile yanıtlanır.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[notification] read error for %s: %v", userID, err)
			}
			return
		}
		if err := channel.WriteJSON(ws.HeartbeatPayload()); err != nil {
			return
		}
	}
}
