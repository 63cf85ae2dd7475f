package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eylulcan/amora/models"
)

func newNotif(recipient, typ string, at time.Time) *models.Notification {
	return &models.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipient,
		Type:        typ,
		CreatedAt:   at,
	}
}

func TestNotificationRepoReplayCriterion(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "bob")
	repo := NewSQLiteNotificationRepo(db.Conn)
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	n1 := newNotif("bob", models.NotificationTypeLike, base)
	n2 := newNotif("bob", models.NotificationTypeMatch, base.Add(time.Second))
	require.NoError(t, repo.Create(ctx, n1))
	require.NoError(t, repo.Create(ctx, n2))

	pending, err := repo.PendingForRecipient(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, n1.ID, pending[0].ID, "replay eski-den yeniye")

	// Push edilen replay'den düşer; okunmuşluk kriter DEĞİLDİR.
	require.NoError(t, repo.MarkPushed(ctx, n1.ID))
	require.NoError(t, repo.MarkRead(ctx, "bob", []string{n2.ID}))

	pending, err = repo.PendingForRecipient(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, n2.ID, pending[0].ID)
	assert.True(t, pending[0].IsRead)
}

func TestNotificationRepoMarkPushedIdempotent(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "bob")
	repo := NewSQLiteNotificationRepo(db.Conn)
	ctx := context.Background()

	n := newNotif("bob", models.NotificationTypeView, time.Now().UTC())
	require.NoError(t, repo.Create(ctx, n))
	require.NoError(t, repo.MarkPushed(ctx, n.ID))

	var firstPush time.Time
	require.NoError(t, db.Conn.QueryRow(
		"SELECT pushed_at FROM notifications WHERE id = ?", n.ID).Scan(&firstPush))

	// İkinci MarkPushed ilk zamanı ezmez.
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.MarkPushed(ctx, n.ID))

	var secondPush time.Time
	require.NoError(t, db.Conn.QueryRow(
		"SELECT pushed_at FROM notifications WHERE id = ?", n.ID).Scan(&secondPush))
	assert.True(t, firstPush.Equal(secondPush))
}

func TestNotificationRepoMetaRoundTrip(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "bob")
	repo := NewSQLiteNotificationRepo(db.Conn)
	ctx := context.Background()

	actorID := "alice"
	n := newNotif("bob", models.NotificationTypeReaction, time.Now().UTC())
	n.ActorID = &actorID
	n.Meta = map[string]any{"reaction": "🔥"}
	require.NoError(t, repo.Create(ctx, n))

	list, err := repo.List(ctx, "bob", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].ActorID)
	assert.Equal(t, "alice", *list[0].ActorID)
	assert.Equal(t, map[string]any{"reaction": "🔥"}, list[0].Meta)
	assert.Nil(t, list[0].PushedAt)
}

func TestNotificationRepoListPagination(t *testing.T) {
	db := newTestDB(t)
	seedUsers(t, db, "bob")
	repo := NewSQLiteNotificationRepo(db.Conn)
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, newNotif("bob", models.NotificationTypeView, base.Add(time.Duration(i)*time.Second))))
	}

	page, err := repo.List(ctx, "bob", 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	// En yeni önce.
	assert.True(t, page[0].CreatedAt.After(page[1].CreatedAt))

	rest, err := repo.List(ctx, "bob", 10, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}
