package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/ws"
)

type stubValidator struct {
	userID string
}

func (v *stubValidator) ValidateAccessToken(token string) (*models.TokenClaims, error) {
	return &models.TokenClaims{UserID: v.userID}, nil
}

type stubNotificationService struct{}

func (s *stubNotificationService) CreateAndPush(ctx context.Context, input models.CreateNotificationInput) (*models.Notification, error) {
	return nil, nil
}
func (s *stubNotificationService) ReplayPending(ctx context.Context, userID string) error {
	return nil
}
func (s *stubNotificationService) List(ctx context.Context, userID string, limit, offset int) ([]models.Notification, error) {
	return nil, nil
}
func (s *stubNotificationService) MarkRead(ctx context.Context, userID string, notificationIDs []string) error {
	return nil
}

// Bildirim kanalı istemciden gelen her frame'e heartbeat ile yanıt verir.
func TestNotificationWSAnswersPingWithHeartbeat(t *testing.T) {
	h := NewNotificationWSHandler(ws.NewRegistry(), &stubNotificationService{}, &stubValidator{userID: "u1"})
	srv := httptest.NewServer(http.HandlerFunc(h.HandleConnection))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=x"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping")))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame map[string]any
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, ws.EventHeartbeat, frame["event"])
	assert.NotEmpty(t, frame["timestamp"])
}
