package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/repositories"
	"github.com/Dosada05/wsob-poker/storage"
	"github.com/Dosada05/wsob-poker/utils"
	"github.com/google/uuid"
)

const MaxAvatarSize = 5 << 20

type CreatePlayerInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	IsAdmin  bool   `json:"is_admin"`
}

// UpdatePlayerInput: nil fields are left unchanged.
type UpdatePlayerInput struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	IsAdmin  *bool   `json:"is_admin"`
}

type PlayerService interface {
	Create(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error)
	List(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error)
	Update(ctx context.Context, id uuid.UUID, actor *Claims, input UpdatePlayerInput) (*models.Player, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UploadAvatar(ctx context.Context, id uuid.UUID, actor *Claims, file io.Reader, contentType string) (*models.Player, error)
}

type playerService struct {
	playerRepo repositories.PlayerRepository
	uploader   storage.FileUploader
	bcryptCost int
	logger     *slog.Logger
}

// NewPlayerService: uploader may be nil when object storage is not configured.
func NewPlayerService(playerRepo repositories.PlayerRepository, uploader storage.FileUploader, bcryptCost int, logger *slog.Logger) PlayerService {
	return &playerService{
		playerRepo: playerRepo,
		uploader:   uploader,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *playerService) Create(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || utils.IsEmailIdentifier(name) {
		return nil, fmt.Errorf("%w: name is required and must not contain '@'", ErrValidationFailed)
	}
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("%w: invalid email address", ErrValidationFailed)
	}
	if len(input.Password) < utils.MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := utils.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	player := &models.Player{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      input.IsAdmin,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, mapPlayerRepoError(err)
	}
	return s.present(player), nil
}

func (s *playerService) GetByID(ctx context.Context, id uuid.UUID) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPlayerRepoError(err)
	}
	return s.present(player), nil
}

func (s *playerService) List(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error) {
	players, err := s.playerRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	for i := range players {
		s.present(&players[i])
	}
	return players, nil
}

func (s *playerService) Update(ctx context.Context, id uuid.UUID, actor *Claims, input UpdatePlayerInput) (*models.Player, error) {
	if actor == nil || (!actor.IsAdmin && actor.PlayerID != id) {
		return nil, ErrForbiddenOperation
	}
	if input.IsAdmin != nil && !actor.IsAdmin {
		return nil, ErrForbiddenOperation
	}

	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPlayerRepoError(err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" || utils.IsEmailIdentifier(name) {
			return nil, fmt.Errorf("%w: name is required and must not contain '@'", ErrValidationFailed)
		}
		player.Name = name
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if !utils.IsValidEmail(email) {
			return nil, fmt.Errorf("%w: invalid email address", ErrValidationFailed)
		}
		player.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < utils.MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := utils.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		player.PasswordHash = hash
	}
	if input.IsAdmin != nil {
		player.IsAdmin = *input.IsAdmin
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, mapPlayerRepoError(err)
	}
	return s.present(player), nil
}

func (s *playerService) Delete(ctx context.Context, id uuid.UUID) error {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return mapPlayerRepoError(err)
	}
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		return mapPlayerRepoError(err)
	}
	if player.AvatarKey != nil && s.uploader != nil {
		if err := s.uploader.Delete(ctx, *player.AvatarKey); err != nil {
			s.logger.Warn("failed to delete avatar", "player_id", id, "key", *player.AvatarKey, "error", err)
		}
	}
	return nil
}

func (s *playerService) UploadAvatar(ctx context.Context, id uuid.UUID, actor *Claims, file io.Reader, contentType string) (*models.Player, error) {
	if actor == nil || (!actor.IsAdmin && actor.PlayerID != id) {
		return nil, ErrForbiddenOperation
	}
	if s.uploader == nil {
		return nil, ErrStorageDisabled
	}
	ext, ok := imageExtension(contentType)
	if !ok {
		return nil, ErrInvalidFileType
	}

	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, mapPlayerRepoError(err)
	}

	// Читаем на байт больше лимита, чтобы отличить ровно 5 МБ от превышения.
	limited := &io.LimitedReader{R: file, N: MaxAvatarSize + 1}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	if len(data) > MaxAvatarSize {
		return nil, ErrFileTooLarge
	}

	key := storage.AvatarKey(id.String(), uuid.NewString(), ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	oldKey := player.AvatarKey
	if err := s.playerRepo.UpdateAvatarKey(ctx, id, &key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to clean up uploaded avatar", "key", key, "error", delErr)
		}
		return nil, mapPlayerRepoError(err)
	}
	player.AvatarKey = &key

	if oldKey != nil && *oldKey != "" {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous avatar", "player_id", id, "key", *oldKey, "error", err)
		}
	}
	return s.present(player), nil
}

func (s *playerService) present(player *models.Player) *models.Player {
	populatePlayerAvatarURL(player, s.uploader)
	return player
}

func populatePlayerAvatarURL(player *models.Player, uploader storage.FileUploader) {
	if player != nil && player.AvatarKey != nil && *player.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*player.AvatarKey)
		if url != "" {
			player.AvatarURL = &url
		}
	}
}

func imageExtension(contentType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/png":
		return ".png", true
	case "image/gif":
		return ".gif", true
	case "image/webp":
		return ".webp", true
	default:
		return "", false
	}
}

func mapPlayerRepoError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerNameConflict):
		return ErrPlayerNameConflict
	case errors.Is(err, repositories.ErrPlayerEmailConflict):
		return ErrPlayerEmailConflict
	case errors.Is(err, repositories.ErrPlayerHasGames):
		return ErrPlayerHasGames
	default:
		return err
	}
}
