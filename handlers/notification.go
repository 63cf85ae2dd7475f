package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/eylulcan/amora/middleware"
	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
	"github.com/eylulcan/amora/services"
)

// NotificationHandler, bildirim geçmişinin REST yüzeyi.
// Canlı teslim WS kanalından gider; burası geçmiş listeleme ve
// okundu işaretleme içindir.
type NotificationHandler struct {
	notifications services.NotificationService
}

// NewNotificationHandler, constructor.
func NewNotificationHandler(notifications services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List — GET /api/notifications?limit=50&offset=0
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := h.notifications.List(r.Context(), userID, limit, offset)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}
	pkg.JSON(w, http.StatusOK, list)
}

// markReadRequest, POST /api/notifications/read body'si.
type markReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

// MarkRead — POST /api/notifications/read
// İdempotent: zaten okunmuş ID'ler sessizce geçer.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r)

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.Error(w, fmt.Errorf("%w: invalid request body", pkg.ErrInvalidInput))
		return
	}
	if len(req.NotificationIDs) == 0 {
		pkg.Error(w, fmt.Errorf("%w: notification_ids is required", pkg.ErrInvalidInput))
		return
	}

	if err := h.notifications.MarkRead(r.Context(), userID, req.NotificationIDs); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]any{"marked": len(req.NotificationIDs)})
}
