package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eylulcan/amora/models"
	"github.com/eylulcan/amora/ws"
)

func newNotificationFixture() (*fakeNotificationRepo, *fakeUserRepo, *fakePublisher, NotificationService) {
	repo := &fakeNotificationRepo{}
	users := newFakeUserRepo(&models.User{ID: "alice", FullName: "Alice"})
	publisher := newFakePublisher()
	return repo, users, publisher, NewNotificationService(repo, users, publisher)
}

func TestCreateAndPushOnline(t *testing.T) {
	repo, _, publisher, svc := newNotificationFixture()

	n, err := svc.CreateAndPush(context.Background(), models.CreateNotificationInput{
		RecipientID: "bob",
		Type:        models.NotificationTypeLike,
		ActorID:     "alice",
	})
	require.NoError(t, err)
	require.NotNil(t, n.ActorName)
	assert.Equal(t, "Alice", *n.ActorName)

	// Canlı push başarılı → pushed_at dolu, replay'e girmez.
	pending, err := repo.PendingForRecipient(context.Background(), "bob")
	require.NoError(t, err)
	assert.Empty(t, pending)

	frames := publisher.framesFor("bob")
	require.Len(t, frames, 1)
	assert.Equal(t, ws.EventNotification, frames[0]["event"])
}

func TestCreateAndPushOfflineThenReplay(t *testing.T) {
	repo, _, publisher, svc := newNotificationFixture()
	ctx := context.Background()
	publisher.failFor["bob"] = true

	for i := 0; i < 3; i++ {
		_, err := svc.CreateAndPush(ctx, models.CreateNotificationInput{
			RecipientID: "bob",
			Type:        models.NotificationTypeMatch,
			ActorID:     "alice",
		})
		require.NoError(t, err)
	}

	pending, err := repo.PendingForRecipient(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, pending, 3, "push edilemeyen bildirimler beklemeli")

	// Bob bağlandı — replay hepsini teslim edip pushed işaretler.
	delete(publisher.failFor, "bob")
	require.NoError(t, svc.ReplayPending(ctx, "bob"))

	pending, err = repo.PendingForRecipient(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Len(t, publisher.framesFor("bob"), 3)
}

func TestReplayStopsOnFailure(t *testing.T) {
	repo, _, publisher, svc := newNotificationFixture()
	ctx := context.Background()
	publisher.failFor["bob"] = true

	for i := 0; i < 3; i++ {
		_, err := svc.CreateAndPush(ctx, models.CreateNotificationInput{
			RecipientID: "bob", Type: models.NotificationTypeView,
		})
		require.NoError(t, err)
	}

	delete(publisher.failFor, "bob")
	publisher.failAfter = publisher.wrote + 1

	require.NoError(t, svc.ReplayPending(ctx, "bob"))

	pending, err := repo.PendingForRecipient(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, pending, 2, "ilk başarısızlıkta replay durmalı")
}

func TestReadStateDoesNotAffectReplay(t *testing.T) {
	repo, _, publisher, svc := newNotificationFixture()
	ctx := context.Background()
	publisher.failFor["bob"] = true

	n, err := svc.CreateAndPush(ctx, models.CreateNotificationInput{
		RecipientID: "bob", Type: models.NotificationTypeLike,
	})
	require.NoError(t, err)

	// Başka cihazda okunmuş olsa bile push edilmediyse replay'e girer.
	require.NoError(t, svc.MarkRead(ctx, "bob", []string{n.ID}))

	pending, err := repo.PendingForRecipient(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.True(t, pending[0].IsRead)
}

func TestActorNameCached(t *testing.T) {
	_, users, _, svc := newNotificationFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateAndPush(ctx, models.CreateNotificationInput{
			RecipientID: "bob", Type: models.NotificationTypeLike, ActorID: "alice",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 1, users.gets, "actor adı cache'ten gelmeli")
}

func TestListClampsLimit(t *testing.T) {
	repo, _, _, svc := newNotificationFixture()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			ID: string(rune('a' + i)), RecipientID: "bob", Type: models.NotificationTypeView,
		}))
	}

	list, err := svc.List(ctx, "bob", -10, -1)
	require.NoError(t, err)
	assert.Len(t, list, 5, "geçersiz limit varsayılana düşmeli")
}
