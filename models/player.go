package models

import (
	"time"

	"github.com/google/uuid"
)

// Player: участник клуба. Пароль хранится только в виде bcrypt-хеша.
type Player struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	AvatarKey    *string   `json:"-" db:"avatar_key"`
	AvatarURL    *string   `json:"avatar_url,omitempty" db:"-"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type PlayerFilter struct {
	Search string
	Limit  int
	Offset int
}
