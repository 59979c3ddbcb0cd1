package storage_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"reelchat/internal/models"
	"reelchat/internal/storage"
	"reelchat/internal/storage/storagetest"
)

var (
	alice = models.UserSnapshot{ID: "alice", DisplayName: "Alice", Email: "alice@example.com"}
	bob   = models.UserSnapshot{ID: "bob", DisplayName: "Bob", PhotoURL: "bob.png"}
	carol = models.UserSnapshot{ID: "carol", DisplayName: "Carol"}
)

func TestFriendshipEdgesAreMirrored(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormFriendshipRepository(storagetest.NewDB(t))

	require.NoError(t, repo.AddEdge(ctx, alice, bob))

	ab, err := repo.AreFriends(ctx, "alice", "bob")
	require.NoError(t, err)
	ba, err := repo.AreFriends(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.True(t, ab)
	assert.True(t, ba)

	edge, err := repo.FindEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, edge)
	assert.Equal(t, bob, edge.Friend())

	require.NoError(t, repo.RemoveEdge(ctx, "bob", "alice"))
	ab, err = repo.AreFriends(ctx, "alice", "bob")
	require.NoError(t, err)
	ba, err = repo.AreFriends(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, ab)
	assert.False(t, ba)

	// Removing again is a no-op.
	require.NoError(t, repo.RemoveEdge(ctx, "alice", "bob"))
}

func TestFriendshipAddEdgeRefreshesSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormFriendshipRepository(storagetest.NewDB(t))

	require.NoError(t, repo.AddEdge(ctx, alice, bob))
	first, err := repo.FindEdge(ctx, "alice", "bob")
	require.NoError(t, err)

	renamed := bob
	renamed.DisplayName = "Robert"
	require.NoError(t, repo.AddEdge(ctx, renamed, alice))

	second, err := repo.FindEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Equal(t, "Robert", second.DisplayName)
	assert.True(t, first.CreatedAt.Equal(second.CreatedAt), "re-adding keeps the friendship date")

	friends, err := repo.ListFriends(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, friends, 1)
}

func TestFriendshipRejectsInvalidPair(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormFriendshipRepository(storagetest.NewDB(t))

	assert.ErrorIs(t, repo.AddEdge(ctx, alice, alice), models.ErrInvalidParticipants)
	assert.ErrorIs(t, repo.RemoveEdge(ctx, "", "bob"), models.ErrInvalidParticipants)
}

func TestFriendshipListAndIDs(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormFriendshipRepository(storagetest.NewDB(t))

	require.NoError(t, repo.AddEdge(ctx, alice, bob))
	require.NoError(t, repo.AddEdge(ctx, alice, carol))

	friends, err := repo.ListFriends(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 2)

	ids, err := repo.GetFriendIDs(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, ids)

	ids, err = repo.GetFriendIDs(ctx, "carol")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, ids)
}

func TestFriendRequestRepository(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormFriendRequestRepository(storagetest.NewDB(t))

	created, err := repo.Create(ctx, models.NewFriendRequest(alice, bob))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, models.NewFriendRequest(alice, bob))
	require.NoError(t, err)
	assert.False(t, created, "one pending request per direction")

	_, err = repo.Create(ctx, models.NewFriendRequest(carol, alice))
	require.NoError(t, err)

	got, err := repo.FindDirected(ctx, "alice", "bob")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.FromName)
	assert.Equal(t, "bob.png", got.ToPhoto)

	missing, err := repo.FindDirected(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Nil(t, missing)

	incoming, err := repo.ListIncoming(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, "carol", incoming[0].FromID)

	outgoing, err := repo.ListOutgoing(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, "bob", outgoing[0].ToID)

	peers, err := repo.PendingPeerIDs(ctx, "alice")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob", "carol"}, peers)

	deleted, err := repo.Delete(ctx, models.FriendRequestID("alice", "bob"))
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, models.FriendRequestID("alice", "bob"))
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRoomGetOrCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormRoomRepository(storagetest.NewDB(t))

	room, err := models.NewDirectRoom(bob, alice)
	require.NoError(t, err)

	stored, created, err := repo.GetOrCreate(ctx, room)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "alice_bob", stored.ID)
	assert.Equal(t, []string{"alice", "bob"}, stored.ParticipantIDs)
	assert.Equal(t, "Bob", stored.ParticipantNames["bob"])

	renamed := alice
	renamed.DisplayName = "Alicia"
	again, err := models.NewDirectRoom(renamed, bob)
	require.NoError(t, err)
	stored, created, err = repo.GetOrCreate(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Alice", stored.ParticipantNames["alice"], "existing room is returned unchanged")

	rooms, err := repo.ListForUser(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	none, err := repo.FindByID(ctx, "bob_carol")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRoomGetOrCreateConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormRoomRepository(storagetest.NewDB(t))

	const callers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		ids     = map[string]bool{}
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, b := alice, bob
			if i%2 == 1 {
				a, b = b, a
			}
			room, err := models.NewDirectRoom(a, b)
			if !assert.NoError(t, err) {
				return
			}
			stored, wasCreated, err := repo.GetOrCreate(ctx, room)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[stored.ID] = true
			if wasCreated {
				created++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, map[string]bool{"alice_bob": true}, ids)
}

func TestMessagesListInSendOrder(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormMessageRepository(storagetest.NewDB(t))

	texts := []string{"first", "second", "third"}
	for i, text := range texts {
		require.NoError(t, repo.Create(ctx, &models.RoomMessage{
			ID:       []string{"m1", "m2", "m3"}[i],
			RoomID:   "alice_bob",
			SenderID: "alice",
			Type:     models.TextMessage,
			Text:     text,
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.RoomMessage{
		ID:       "m4",
		RoomID:   "alice_bob",
		SenderID: "bob",
		Type:     models.ReelMessage,
		Reel:     &models.Reel{ID: "r1", VideoURL: "https://cdn.example.com/r1.mp4"},
	}))

	msgs, err := repo.ListByRoom(ctx, "alice_bob", 0, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "first", msgs[0].Text)
	assert.Equal(t, "third", msgs[2].Text)
	require.NotNil(t, msgs[3].Reel)
	assert.Equal(t, "r1", msgs[3].Reel.ID)

	page, err := repo.ListByRoom(ctx, "alice_bob", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "second", page[0].Text)
}

func TestUserSearchExcludes(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewGormUserRepository(storagetest.NewDB(t))

	for _, u := range []models.User{
		{ID: "u1", Email: "ann@example.com", DisplayName: "Ann", PasswordHash: "x"},
		{ID: "u2", Email: "anna@example.com", DisplayName: "Anna", PasswordHash: "x"},
		{ID: "u3", Email: "bo@example.com", DisplayName: "Bo", PasswordHash: "x"},
	} {
		u := u
		require.NoError(t, repo.Create(ctx, &u))
	}

	found, err := repo.SearchUsers(ctx, "ANN", []string{"u1"}, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "u2", found[0].ID)
	assert.Empty(t, found[0].PasswordHash)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	user, err := repo.GetByEmail(ctx, "Bo@Example.com")
	require.NoError(t, err)
	user.DisplayName = "Bob"
	require.NoError(t, repo.Update(ctx, user))

	snaps, err := repo.GetSnapshots(ctx, []string{"u3"})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Bob", snaps[0].DisplayName)
}

func TestLockPairInsideTransaction(t *testing.T) {
	ctx := context.Background()
	db := storagetest.NewDB(t)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := storage.LockPair(ctx, tx, "bob", "alice"); err != nil {
			return err
		}
		return storage.LockPair(ctx, tx, "alice", "bob")
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.PairLock{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	err = db.Transaction(func(tx *gorm.DB) error {
		return storage.LockPair(ctx, tx, "alice", "alice")
	})
	assert.ErrorIs(t, err, models.ErrInvalidParticipants)
}
