package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eylulcan/amora/database"
	"github.com/eylulcan/amora/models"
)

// newTestDB, geçici dizinde gerçek bir SQLite açar ve migration'ları koşar.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(
		filepath.Join(t.TempDir(), "test.db"),
		os.DirFS("../database/migrations"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedUsers(t *testing.T, db *database.DB, ids ...string) {
	t.Helper()
	for _, id := range ids {
		_, err := db.Conn.Exec(
			"INSERT INTO users (id, full_name) VALUES (?, ?)", id, "User "+id)
		require.NoError(t, err)
	}
}

func newMsg(sender, receiver, content string, at time.Time) *models.Message {
	return &models.Message{
		ID:         uuid.NewString(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Type:       models.MessageTypeText,
		CreatedAt:  at,
	}
}

func TestMessageRepoPendingOrder(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "alice", "bob")
	repo := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	// Kasıtlı olarak ters sırada insert — sıralama created_at'ten gelmeli.
	third := newMsg("alice", "bob", "üç", base.Add(2*time.Second))
	first := newMsg("alice", "bob", "bir", base)
	second := newMsg("alice", "bob", "iki", base.Add(time.Second))
	for _, m := range []*models.Message{third, first, second} {
		require.NoError(t, repo.Create(ctx, m))
	}

	pending, err := repo.PendingForReceiver(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "bir", pending[0].Content)
	assert.Equal(t, "iki", pending[1].Content)
	assert.Equal(t, "üç", pending[2].Content)

	// Teslim edilen drain'den düşer.
	require.NoError(t, repo.MarkDelivered(ctx, first.ID))
	pending, err = repo.PendingForReceiver(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "iki", pending[0].Content)

	// Başka kullanıcının kuyruğu boş.
	pending, err = repo.PendingForReceiver(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMessageRepoMarkRead(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "alice", "bob")
	repo := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	m1 := newMsg("alice", "bob", "bir", time.Now().UTC())
	m2 := newMsg("alice", "bob", "iki", time.Now().UTC())
	m3 := newMsg("bob", "alice", "cevap", time.Now().UTC())
	for _, m := range []*models.Message{m1, m2, m3} {
		require.NoError(t, repo.Create(ctx, m))
	}

	// m3 bob'a ait değil — receiver filtresi onu atlamalı.
	require.NoError(t, repo.MarkRead(ctx, []string{m1.ID, m2.ID, m3.ID}, "bob"))

	got, err := repo.GetByID(ctx, m1.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	assert.True(t, got.IsDelivered, "okunan mesaj teslim edilmiş de sayılır")

	got, err = repo.GetByID(ctx, m3.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRead)

	// Boş liste no-op.
	require.NoError(t, repo.MarkRead(ctx, nil, "bob"))
}

func TestMessageRepoUpsertReaction(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "alice", "bob")
	repo := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	m := newMsg("alice", "bob", "selam", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, m))

	r1 := &models.MessageReaction{ID: uuid.NewString(), MessageID: m.ID, UserID: "bob", Reaction: "❤️", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.UpsertReaction(ctx, r1))

	// Aynı kullanıcının ikinci tepkisi üstüne yazar.
	r2 := &models.MessageReaction{ID: uuid.NewString(), MessageID: m.ID, UserID: "bob", Reaction: "🔥", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.UpsertReaction(ctx, r2))

	var count int
	var reaction string
	require.NoError(t, db.Conn.QueryRow(
		"SELECT COUNT(*), MAX(reaction) FROM message_reactions WHERE message_id = ? AND user_id = ?",
		m.ID, "bob",
	).Scan(&count, &reaction))
	assert.Equal(t, 1, count)
	assert.Equal(t, "🔥", reaction)
}

func TestMessageRepoMediaRoundTrip(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "alice", "bob")
	repo := NewSQLiteMessageRepo(db.Conn)
	ctx := context.Background()

	mediaID := "med1"
	m := newMsg("alice", "bob", "bak", time.Now().UTC())
	m.Type = models.MessageTypeImage
	m.MediaID = &mediaID
	require.NoError(t, repo.Create(ctx, m))

	got, err := repo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MediaID)
	assert.Equal(t, "med1", *got.MediaID)
	assert.Equal(t, models.MessageTypeImage, got.Type)
}

func TestBlockRepoHideOnly(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "alice", "bob", "carol")
	repo := NewSQLiteBlockRepo(db.Conn)
	ctx := context.Background()

	_, err := db.Conn.Exec(
		"INSERT INTO user_blocks (id, blocker_id, blocked_id, hide_only) VALUES (?, ?, ?, 0)",
		uuid.NewString(), "alice", "bob")
	require.NoError(t, err)
	_, err = db.Conn.Exec(
		"INSERT INTO user_blocks (id, blocker_id, blocked_id, hide_only) VALUES (?, ?, ?, 1)",
		uuid.NewString(), "alice", "carol")
	require.NoError(t, err)

	// Gerçek blok iki yönde de görünür.
	blocked, err := repo.IsBlockedEither(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, blocked)
	blocked, err = repo.IsBlockedEither(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, blocked)

	// hide_only blok mesajlaşmayı engellemez.
	blocked, err = repo.IsBlockedEither(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.False(t, blocked)
}
