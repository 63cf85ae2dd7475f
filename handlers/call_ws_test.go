package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eylulcan/amora/services"
	"github.com/eylulcan/amora/ws"
)

func TestParseErrorCode(t *testing.T) {
	// Tanınmayan type → unknown_type.
	_, err := ws.ParseCallMessage([]byte(`{"type":"call.teleport"}`))
	require.Error(t, err)
	assert.Equal(t, services.CallCodeUnknownType, parseErrorCode(err))

	// Bozuk JSON → invalid_message.
	_, err = ws.ParseCallMessage([]byte(`not json`))
	require.Error(t, err)
	assert.Equal(t, services.CallCodeInvalidMessage, parseErrorCode(err))
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws/call", nil)
	r.Header.Set("Sec-WebSocket-Protocol", "bearer, abc123")
	assert.Equal(t, "abc123", bearerToken(r))

	r = httptest.NewRequest("GET", "/ws/call", nil)
	assert.Equal(t, "", bearerToken(r))

	// Token'sız "bearer" tek başına yetmez.
	r = httptest.NewRequest("GET", "/ws/call", nil)
	r.Header.Set("Sec-WebSocket-Protocol", "bearer")
	assert.Equal(t, "", bearerToken(r))
}
