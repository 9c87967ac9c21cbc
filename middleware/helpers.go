package middleware

import (
	"context"
	"errors"

	"github.com/Dosada05/wsob-poker/services"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "user"

var ErrNoClaims = errors.New("player claims not found in context")

func WithClaims(ctx context.Context, claims *services.Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func GetClaimsFromContext(ctx context.Context) (*services.Claims, error) {
	claims, ok := ctx.Value(userContextKey).(*services.Claims)
	if !ok || claims == nil {
		return nil, ErrNoClaims
	}
	return claims, nil
}

func GetPlayerIDFromContext(ctx context.Context) (uuid.UUID, error) {
	claims, err := GetClaimsFromContext(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return claims.PlayerID, nil
}
