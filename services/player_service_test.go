package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newPlayerFixture(t *testing.T) (PlayerService, *fakePlayerRepo, *fakeUploader, models.Player) {
	t.Helper()
	player := models.Player{ID: uuid.New(), Name: "Anna", Email: "anna@example.com"}
	repo := newFakePlayerRepo(player)
	uploader := newFakeUploader()
	return NewPlayerService(repo, uploader, bcrypt.MinCost, discardLogger()), repo, uploader, player
}

func TestCreatePlayer(t *testing.T) {
	svc, repo, _, _ := newPlayerFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreatePlayerInput{Name: " Boris ", Email: "Boris@Example.com", Password: "all-in-preflop"})
	require.NoError(t, err)
	assert.Equal(t, "Boris", created.Name)
	assert.Equal(t, "boris@example.com", created.Email)
	stored := repo.players[created.ID]
	assert.True(t, utils.CheckPasswordHash("all-in-preflop", stored.PasswordHash))

	tests := []struct {
		name  string
		input CreatePlayerInput
		want  error
	}{
		{"empty name", CreatePlayerInput{Email: "x@example.com", Password: "long-enough"}, ErrValidationFailed},
		{"name with at", CreatePlayerInput{Name: "x@y", Email: "x@example.com", Password: "long-enough"}, ErrValidationFailed},
		{"bad email", CreatePlayerInput{Name: "Vera", Email: "vera", Password: "long-enough"}, ErrValidationFailed},
		{"short password", CreatePlayerInput{Name: "Vera", Email: "vera@example.com", Password: "short"}, ErrPasswordTooShort},
		{"name taken", CreatePlayerInput{Name: "anna", Email: "other@example.com", Password: "long-enough"}, ErrPlayerNameConflict},
		{"email taken", CreatePlayerInput{Name: "Anya", Email: "ANNA@example.com", Password: "long-enough"}, ErrPlayerEmailConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUpdatePlayerPermissions(t *testing.T) {
	svc, _, _, player := newPlayerFixture(t)
	ctx := context.Background()
	self := &Claims{PlayerID: player.ID}
	stranger := &Claims{PlayerID: uuid.New()}
	admin := &Claims{PlayerID: uuid.New(), IsAdmin: true}
	name := "Anna K"

	updated, err := svc.Update(ctx, player.ID, self, UpdatePlayerInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Anna K", updated.Name)

	_, err = svc.Update(ctx, player.ID, stranger, UpdatePlayerInput{Name: &name})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.Update(ctx, player.ID, self, UpdatePlayerInput{IsAdmin: boolPtr(true)})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	promoted, err := svc.Update(ctx, player.ID, admin, UpdatePlayerInput{IsAdmin: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, promoted.IsAdmin)

	_, err = svc.Update(ctx, uuid.New(), admin, UpdatePlayerInput{Name: &name})
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestUploadAvatar(t *testing.T) {
	svc, _, uploader, player := newPlayerFixture(t)
	ctx := context.Background()
	self := &Claims{PlayerID: player.ID}

	first, err := svc.UploadAvatar(ctx, player.ID, self, strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	require.NotNil(t, first.AvatarURL)
	assert.True(t, strings.HasPrefix(*first.AvatarURL, "https://cdn.example.com/avatars/"+player.ID.String()+"/"))
	assert.True(t, strings.HasSuffix(*first.AvatarURL, ".png"))
	firstKey := *first.AvatarKey
	assert.Equal(t, []byte("png-bytes"), uploader.objects[firstKey])

	second, err := svc.UploadAvatar(ctx, player.ID, self, strings.NewReader("jpeg-bytes"), "image/jpeg; charset=binary")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(*second.AvatarKey, ".jpg"))
	assert.Contains(t, uploader.deleted, firstKey)
	assert.NotContains(t, uploader.objects, firstKey)
}

func TestUploadAvatarRejects(t *testing.T) {
	svc, _, uploader, player := newPlayerFixture(t)
	ctx := context.Background()
	self := &Claims{PlayerID: player.ID}

	_, err := svc.UploadAvatar(ctx, player.ID, &Claims{PlayerID: uuid.New()}, strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.UploadAvatar(ctx, player.ID, self, strings.NewReader("x"), "application/pdf")
	assert.ErrorIs(t, err, ErrInvalidFileType)

	exact := bytes.Repeat([]byte{1}, MaxAvatarSize)
	_, err = svc.UploadAvatar(ctx, player.ID, self, bytes.NewReader(exact), "image/webp")
	require.NoError(t, err)

	tooBig := bytes.Repeat([]byte{1}, MaxAvatarSize+1)
	_, err = svc.UploadAvatar(ctx, player.ID, self, bytes.NewReader(tooBig), "image/webp")
	assert.ErrorIs(t, err, ErrFileTooLarge)

	uploader.failWith = errors.New("bucket unavailable")
	_, err = svc.UploadAvatar(ctx, player.ID, self, strings.NewReader("x"), "image/gif")
	assert.ErrorContains(t, err, "bucket unavailable")

	disabled := NewPlayerService(newFakePlayerRepo(player), nil, bcrypt.MinCost, discardLogger())
	_, err = disabled.UploadAvatar(ctx, player.ID, self, strings.NewReader("x"), "image/png")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}

func TestDeletePlayerRemovesAvatar(t *testing.T) {
	svc, repo, uploader, player := newPlayerFixture(t)
	ctx := context.Background()

	withAvatar, err := svc.UploadAvatar(ctx, player.ID, &Claims{PlayerID: player.ID}, strings.NewReader("x"), "image/png")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, player.ID))
	assert.NotContains(t, repo.players, player.ID)
	assert.Contains(t, uploader.deleted, *withAvatar.AvatarKey)

	assert.ErrorIs(t, svc.Delete(ctx, player.ID), ErrPlayerNotFound)
}
