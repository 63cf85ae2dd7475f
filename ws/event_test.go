package ws

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/pkg"
)

func TestDecodeChatEventMessage(t *testing.T) {
	// Zarfsiz frame düz mesaj olarak kabul edilir.
	ev, err := DecodeChatEvent([]byte(`{"receiver_id":"u2","content":"selam"}`))
	require.NoError(t, err)
	req, ok := ev.(*models.CreateMessageRequest)
	require.True(t, ok)
	assert.Equal(t, "u2", req.ReceiverID)
	assert.Equal(t, "selam", req.Content)

	// Zarfli hali de aynı tipe çözülür.
	ev, err = DecodeChatEvent([]byte(`{"type":"message","receiver_id":"u3","content":"hey"}`))
	require.NoError(t, err)
	_, ok = ev.(*models.CreateMessageRequest)
	assert.True(t, ok)

	// Zarf anahtarı "type", içerik türü "message_type" — çakışmaz.
	ev, err = DecodeChatEvent([]byte(`{"type":"message","receiver_id":"u4","message_type":"image","media_id":"med1"}`))
	require.NoError(t, err)
	req = ev.(*models.CreateMessageRequest)
	assert.Equal(t, models.MessageTypeImage, req.Type)
}

func TestDecodeChatEventVariants(t *testing.T) {
	ev, err := DecodeChatEvent([]byte(`{"type":"read_receipt","message_ids":["m1","m2"]}`))
	require.NoError(t, err)
	rr := ev.(*ReadReceiptEvent)
	assert.Equal(t, []string{"m1", "m2"}, rr.MessageIDs)

	ev, err = DecodeChatEvent([]byte(`{"type":"reaction","message_id":"m1","reaction":"❤️"}`))
	require.NoError(t, err)
	re := ev.(*ReactionEvent)
	assert.Equal(t, "❤️", re.Reaction)

	ev, err = DecodeChatEvent([]byte(`{"type":"ai_request","original_message_id":"m1","tone":"flirty"}`))
	require.NoError(t, err)
	ar := ev.(*AIRequestEvent)
	assert.Equal(t, "flirty", ar.Tone)

	ev, err = DecodeChatEvent([]byte(`{"type":"ai_selected","receiver_id":"u2","content":"tabii!"}`))
	require.NoError(t, err)
	as := ev.(*AISelectedEvent)
	assert.Equal(t, "u2", as.ReceiverID)
}

func TestDecodeChatEventErrors(t *testing.T) {
	cases := []string{
		`not json`,
		`{"type":"teleport"}`,
		`{"type":"read_receipt","message_ids":[]}`,
		`{"type":"reaction","message_id":"m1"}`,
		`{"type":"ai_request"}`,
		`{"type":"ai_selected","receiver_id":"u2"}`,
	}
	for _, raw := range cases {
		_, err := DecodeChatEvent([]byte(raw))
		assert.Error(t, err, raw)
		assert.True(t, errors.Is(err, pkg.ErrInvalidInput), raw)
	}
}

func TestParseCallMessage(t *testing.T) {
	msg, err := ParseCallMessage([]byte(`{"type":"call.invite","target_id":"u2","media_type":"video"}`))
	require.NoError(t, err)
	inv := msg.(*CallInvite)
	assert.Equal(t, "u2", inv.TargetID)
	assert.Equal(t, "video", inv.MediaType)

	msg, err = ParseCallMessage([]byte(`{"type":"webrtc.ice","call_id":"c1","candidate":"cand","sdp_mline_index":0}`))
	require.NoError(t, err)
	ice := msg.(*ICECandidate)
	require.NotNil(t, ice.SDPMLineIndex)
	assert.Equal(t, 0, *ice.SDPMLineIndex)
	assert.Nil(t, ice.SDPMid)

	// Bilinmeyen type ile bozuk JSON ayrı hatalar üretir — handler
	// bunları farklı kodlarla (unknown_type / invalid_message) iletir.
	_, err = ParseCallMessage([]byte(`{"type":"call.warp"}`))
	assert.True(t, errors.Is(err, ErrUnknownSignalType))

	_, err = ParseCallMessage([]byte(`garbage`))
	assert.True(t, errors.Is(err, pkg.ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrUnknownSignalType))
}

func TestNotificationPayloadOmitsNilFields(t *testing.T) {
	n := &models.Notification{
		ID:          "n1",
		RecipientID: "u1",
		Type:        models.NotificationTypeLike,
	}
	p := NotificationPayload(n)

	assert.Equal(t, EventNotification, p["event"])
	data := p["data"].(map[string]any)
	assert.Equal(t, "n1", data["id"])
	_, hasActor := data["actor_id"]
	assert.False(t, hasActor)
	_, hasPreview := data["message_preview"]
	assert.False(t, hasPreview)
}

func TestHeartbeatPayloadShape(t *testing.T) {
	p := HeartbeatPayload()
	assert.Equal(t, EventHeartbeat, p["event"])
	assert.NotEmpty(t, p["timestamp"])
}
