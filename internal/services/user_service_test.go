package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reelchat/internal/auth"
	"reelchat/internal/config"
	"reelchat/internal/models"
)

func register(t *testing.T, svc AuthService, email, name string) *models.User {
	t.Helper()
	user, err := svc.Register(context.Background(), email, name, "password123")
	require.NoError(t, err)
	return user
}

func TestAuthRegisterLoginLogout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	blacklist := auth.NewMemoryBlacklist()
	cfg := config.AuthConfig{JWTSecretKey: "secret", JWTExpiry: time.Hour}
	svc := NewAuthService(f.db, blacklist, cfg)

	user := register(t, svc, " Dana@Example.com ", "Dana")
	assert.Equal(t, "dana@example.com", user.Email)
	assert.NoError(t, models.ValidateUserID(user.ID))
	assert.Empty(t, user.PasswordHash)

	_, err := svc.Register(ctx, "dana@example.com", "Other", "password123")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
	_, err = svc.Register(ctx, "not-an-email", "Other", "password123")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = svc.Register(ctx, "eve@example.com", "Eve", "short")
	assert.ErrorIs(t, err, auth.ErrPasswordTooShort)

	_, _, err = svc.Login(ctx, "dana@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, loggedIn, err := svc.Login(ctx, "DANA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := auth.ValidateToken(ctx, token, cfg.JWTSecretKey, blacklist)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, err = auth.ValidateToken(ctx, token, cfg.JWTSecretKey, blacklist)
	assert.ErrorIs(t, err, auth.ErrTokenRevoked)
}

func TestSearchUsersExcludesKnownPeople(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	authSvc := NewAuthService(f.db, auth.NewMemoryBlacklist(), config.AuthConfig{JWTSecretKey: "s", JWTExpiry: time.Hour})
	users := NewUserService(f.db, f.friendships)

	me := register(t, authSvc, "sam@example.com", "Sam")
	friend := register(t, authSvc, "sammy@example.com", "Sammy")
	asked := register(t, authSvc, "samantha@example.com", "Samantha")
	asker := register(t, authSvc, "samuel@example.com", "Samuel")
	stranger := register(t, authSvc, "samir@example.com", "Samir")

	_, err := f.ledger.SendFriendRequest(ctx, me.Snapshot(), friend.Snapshot())
	require.NoError(t, err)
	_, err = f.ledger.SendFriendRequest(ctx, friend.Snapshot(), me.Snapshot())
	require.NoError(t, err)
	_, err = f.ledger.SendFriendRequest(ctx, me.Snapshot(), asked.Snapshot())
	require.NoError(t, err)
	_, err = f.ledger.SendFriendRequest(ctx, asker.Snapshot(), me.Snapshot())
	require.NoError(t, err)

	found, err := users.SearchUsers(ctx, me.ID, "sam")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, stranger.ID, found[0].ID)

	found, err = users.SearchUsers(ctx, me.ID, "  ")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUpdateProfileRefreshesFriendEdges(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	authSvc := NewAuthService(f.db, auth.NewMemoryBlacklist(), config.AuthConfig{JWTSecretKey: "s", JWTExpiry: time.Hour})
	users := NewUserService(f.db, f.friendships)

	a := register(t, authSvc, "a@example.com", "Ada")
	b := register(t, authSvc, "b@example.com", "Ben")
	_, err := f.ledger.SendFriendRequest(ctx, a.Snapshot(), b.Snapshot())
	require.NoError(t, err)
	_, err = f.ledger.SendFriendRequest(ctx, b.Snapshot(), a.Snapshot())
	require.NoError(t, err)

	_, err = users.UpdateUserProfile(ctx, a.ID, "  ", "")
	assert.ErrorIs(t, err, ErrInvalidProfile)

	updated, err := users.UpdateUserProfile(ctx, a.ID, "Ada L.", "https://img.example.com/ada.png")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", updated.DisplayName)

	edges, err := f.friendships.ListFriends(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "Ada L.", edges[0].DisplayName)
	assert.Equal(t, "https://img.example.com/ada.png", edges[0].PhotoURL)

	_, err = users.GetUserProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
