package ws

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChannel, testlerde kullanılan in-memory Channel implementasyonu.
type fakeChannel struct {
	mu     sync.Mutex
	frames []any
	fail   bool
	closed bool
}

func (c *fakeChannel) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.frames = append(c.frames, v)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeChannel) frameCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry()
	ch1 := &fakeChannel{}
	ch2 := &fakeChannel{}

	r.Register("alice", ch1)
	r.Register("alice", ch2)

	assert.True(t, r.IsOnline("alice"))
	assert.Len(t, r.Connections("alice"), 2)

	r.Unregister("alice", ch1)
	assert.True(t, r.IsOnline("alice"))
	assert.Len(t, r.Connections("alice"), 1)

	r.Unregister("alice", ch2)
	assert.False(t, r.IsOnline("alice"))
	assert.Nil(t, r.Connections("alice"))
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	r := NewRegistry()
	ch := &fakeChannel{}

	r.Register("bob", ch)
	r.Unregister("bob", ch)
	r.Unregister("bob", ch) // ikinci çıkarma no-op olmalı
	r.Unregister("carol", ch)

	assert.False(t, r.IsOnline("bob"))
}

func TestRegistryShutdownClosesAll(t *testing.T) {
	r := NewRegistry()
	ch1 := &fakeChannel{}
	ch2 := &fakeChannel{}
	r.Register("alice", ch1)
	r.Register("bob", ch2)

	r.Shutdown()

	assert.True(t, ch1.closed)
	assert.True(t, ch2.closed)
	assert.False(t, r.IsOnline("alice"))
	assert.False(t, r.IsOnline("bob"))
}

func TestDispatcherSendOfflineUser(t *testing.T) {
	d := NewDispatcher(NewRegistry())
	assert.False(t, d.Send("ghost", map[string]any{"type": "x"}))
}

func TestDispatcherSendFanOut(t *testing.T) {
	r := NewRegistry()
	ch1 := &fakeChannel{}
	ch2 := &fakeChannel{}
	r.Register("alice", ch1)
	r.Register("alice", ch2)

	d := NewDispatcher(r)
	require.True(t, d.Send("alice", map[string]any{"type": "message"}))

	assert.Equal(t, 1, ch1.frameCount())
	assert.Equal(t, 1, ch2.frameCount())
}

func TestDispatcherPrunesStaleChannels(t *testing.T) {
	r := NewRegistry()
	dead := &fakeChannel{fail: true}
	live := &fakeChannel{}
	r.Register("alice", dead)
	r.Register("alice", live)

	d := NewDispatcher(r)

	// En az bir kanal başarılı → true; ölü kanal ayıklanıp kapatılır.
	assert.True(t, d.Send("alice", map[string]any{"type": "message"}))
	assert.True(t, dead.closed)
	assert.Len(t, r.Connections("alice"), 1)

	// İkinci gönderim sadece canlı kanala gider.
	assert.True(t, d.Send("alice", map[string]any{"type": "message"}))
	assert.Equal(t, 2, live.frameCount())
}

func TestDispatcherAllChannelsDead(t *testing.T) {
	r := NewRegistry()
	dead := &fakeChannel{fail: true}
	r.Register("alice", dead)

	d := NewDispatcher(r)

	assert.False(t, d.Send("alice", map[string]any{"type": "message"}))
	assert.False(t, r.IsOnline("alice"), "ölü kanal ayıklanınca kullanıcı offline görünmeli")
}

func TestDispatcherBroadcast(t *testing.T) {
	r := NewRegistry()
	ch1 := &fakeChannel{}
	ch2 := &fakeChannel{}
	r.Register("alice", ch1)
	r.Register("bob", ch2)

	NewDispatcher(r).Broadcast(map[string]any{"type": "maintenance"})

	assert.Equal(t, 1, ch1.frameCount())
	assert.Equal(t, 1, ch2.frameCount())
}
