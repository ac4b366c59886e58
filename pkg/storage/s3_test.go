package storage

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateImageType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		filename    string
		wantExt     string
		wantOK      bool
	}{
		{"png by content type", "image/png", "", ".png", true},
		{"jpeg by extension", "", "photo.JPEG", ".jpg", true},
		{"content type wins", "image/webp", "x.gif", ".webp", true},
		{"video rejected", "video/mp4", "clip.mp4", "", false},
		{"no hints", "", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ext, ok := ValidateImageType(tt.contentType, tt.filename)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

func TestAssetKey(t *testing.T) {
	user := uuid.New()
	key := AssetKey(KindLogo, user, ".png")

	assert.True(t, strings.HasPrefix(key, "organizations/logo/"+user.String()+"/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	assert.True(t, IsAssetKey(key, user))
	assert.False(t, IsAssetKey(key, uuid.New()))
	assert.NotEqual(t, key, AssetKey(KindLogo, user, ".png"))
}

func TestIsAssetKey_RejectsForeignKeys(t *testing.T) {
	user := uuid.New()
	assert.False(t, IsAssetKey("recordings/"+user.String()+"/a.mp4", user))
	assert.False(t, IsAssetKey("organizations/avatar/"+user.String()+"/a.png", user))
	assert.False(t, IsAssetKey("organizations/logo/"+user.String()+"/../x.png", user))
}

func TestContentTypeForExt(t *testing.T) {
	assert.Equal(t, "image/png", ContentTypeForExt(".PNG"))
	assert.Equal(t, "application/octet-stream", ContentTypeForExt(".exe"))
}
