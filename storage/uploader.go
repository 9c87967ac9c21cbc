package storage

import (
	"context"
	"io"
	"path"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит аватары игроков и архив расчётов в S3-совместимом бакете.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	// GetPublicURL returns "" when no URL can be formed for key.
	GetPublicURL(key string) string
}

// Префиксы ключей в бакете.
const (
	AvatarPrefix     = "avatars"
	SettlementPrefix = "settlements"
)

// AvatarKey: avatars/{playerID}/{name}{ext}.
func AvatarKey(playerID, name, ext string) string {
	return path.Join(AvatarPrefix, playerID, name+ext)
}

// SettlementArchiveKey: settlements/{gameID}/{digest}.json.
func SettlementArchiveKey(gameID, digest string) string {
	return path.Join(SettlementPrefix, gameID, digest+".json")
}
