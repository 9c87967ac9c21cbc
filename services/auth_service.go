package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/Dosada05/wsob-poker/repositories"
	"github.com/Dosada05/wsob-poker/storage"
	"github.com/Dosada05/wsob-poker/utils"
)

type LoginInput struct {
	// Identifier is a player name or, if it contains "@", an email.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResult struct {
	Player    *models.Player `json:"player"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
}

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)
	Me(ctx context.Context, claims *Claims) (*models.Player, error)
}

type authService struct {
	playerRepo repositories.PlayerRepository
	tokens     TokenManager
	uploader   storage.FileUploader
}

func NewAuthService(playerRepo repositories.PlayerRepository, tokens TokenManager, uploader storage.FileUploader) AuthService {
	return &authService{
		playerRepo: playerRepo,
		tokens:     tokens,
		uploader:   uploader,
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	var player *models.Player
	var err error
	if utils.IsEmailIdentifier(identifier) {
		player, err = s.playerRepo.GetByEmail(ctx, identifier)
	} else {
		player, err = s.playerRepo.GetByName(ctx, identifier)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find player: %w", err)
	}

	if !utils.CheckPasswordHash(input.Password, player.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(player)
	if err != nil {
		return nil, err
	}

	populatePlayerAvatarURL(player, s.uploader)
	return &LoginResult{Player: player, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) Me(ctx context.Context, claims *Claims) (*models.Player, error) {
	if claims == nil {
		return nil, ErrAuthenticationFailed
	}
	player, err := s.playerRepo.GetByID(ctx, claims.PlayerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			// Игрок удалён после выдачи токена.
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("failed to load current player: %w", err)
	}
	populatePlayerAvatarURL(player, s.uploader)
	return player, nil
}
