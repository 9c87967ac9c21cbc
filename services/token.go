package services

import (
	"fmt"
	"time"

	"github.com/Dosada05/wsob-poker/models"
	"github.com/coder/quartz"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Claims are the fields of a session token, decoded.
type Claims struct {
	PlayerID  uuid.UUID
	IsAdmin   bool
	Name      string
	ExpiresAt time.Time
}

type TokenManager interface {
	Issue(player *models.Player) (string, time.Time, error)
	Parse(token string) (*Claims, error)
}

type jwtTokenManager struct {
	secret []byte
	ttl    time.Duration
	clock  quartz.Clock
}

func NewJWTTokenManager(secret string, ttl time.Duration, clock quartz.Clock) TokenManager {
	return &jwtTokenManager{secret: []byte(secret), ttl: ttl, clock: clock}
}

func (m *jwtTokenManager) Issue(player *models.Player) (string, time.Time, error) {
	now := m.clock.Now()
	expiresAt := now.Add(m.ttl)
	claims := jwt.MapClaims{
		"player_id": player.ID.String(),
		"is_admin":  player.IsAdmin,
		"name":      player.Name,
		"iat":       now.Unix(),
		"exp":       expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Parse verifies the signature and expiry against the manager's clock.
func (m *jwtTokenManager) Parse(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	claims := jwt.MapClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}

	if !claims.VerifyExpiresAt(m.clock.Now().Unix(), true) {
		return nil, fmt.Errorf("%w: token expired", ErrAuthenticationFailed)
	}

	rawID, _ := claims["player_id"].(string)
	playerID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid player_id claim", ErrAuthenticationFailed)
	}
	isAdmin, _ := claims["is_admin"].(bool)
	name, _ := claims["name"].(string)

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: exp claim has invalid type", ErrAuthenticationFailed)
	}

	return &Claims{
		PlayerID:  playerID,
		IsAdmin:   isAdmin,
		Name:      name,
		ExpiresAt: time.Unix(int64(exp), 0),
	}, nil
}
