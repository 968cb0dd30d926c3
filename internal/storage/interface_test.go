package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	t.Run("scopes keys by user and question", func(t *testing.T) {
		key := ObjectKey("user-1", "q-1", AssetAudio, "mp3")

		assert.True(t, strings.HasPrefix(key, "user-1/q-1/audio_"))
		assert.True(t, strings.HasSuffix(key, ".mp3"))
	})

	t.Run("every take gets a new key", func(t *testing.T) {
		assert.NotEqual(t,
			ObjectKey("user-1", "q-1", AssetVideo, "webm"),
			ObjectKey("user-1", "q-1", AssetVideo, "webm"),
		)
	})
}

func TestObjectURI(t *testing.T) {
	assert.Equal(t, "gs://recordings/u/q/audio.mp3", (&GCSClient{bucket: "recordings"}).ObjectURI("u/q/audio.mp3"))
	assert.Equal(t, "s3://recordings/u/q/audio.mp3", (&S3Client{bucket: "recordings"}).ObjectURI("u/q/audio.mp3"))
}
