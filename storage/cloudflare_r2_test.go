package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicURL(t *testing.T) {
	tests := []struct {
		base string
		key  string
		want string
	}{
		{"https://cdn.example.com", "avatars/a.png", "https://cdn.example.com/avatars/a.png"},
		{"https://cdn.example.com/", "/avatars/a.png", "https://cdn.example.com/avatars/a.png"},
		{"https://cdn.example.com/club", "settlements/g/d.json", "https://cdn.example.com/club/settlements/g/d.json"},
		{"https://cdn.example.com/club/", "settlements/g/d.json", "https://cdn.example.com/club/settlements/g/d.json"},
		{"https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.base+"|"+tt.key, func(t *testing.T) {
			base, err := parsePublicBaseURL(tt.base)
			require.NoError(t, err)
			assert.Equal(t, tt.want, publicURL(base, tt.key))
		})
	}
}

func TestParsePublicBaseURLRejectsRelative(t *testing.T) {
	_, err := parsePublicBaseURL("cdn.example.com/avatars")
	assert.Error(t, err)
}

func TestNewCloudflareR2UploaderRequiresAllFields(t *testing.T) {
	_, err := NewCloudflareR2Uploader(t.Context(), CloudflareR2UploaderConfig{AccountID: "acc", BucketName: "b"})
	assert.Error(t, err)
}

func TestObjectKeys(t *testing.T) {
	assert.Equal(t, "avatars/p1/abc.png", AvatarKey("p1", "abc", ".png"))
	assert.Equal(t, "settlements/g1/deadbeef.json", SettlementArchiveKey("g1", "deadbeef"))
}
