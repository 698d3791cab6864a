package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "campusvoice/pkg/domain-errors"
)

func TestValidate(t *testing.T) {
	const maxBytes = 10 << 20

	t.Run("classifies known extensions", func(t *testing.T) {
		cases := map[string]Kind{
			"photo.JPG":     KindImage,
			"clip.mp4":      KindVideo,
			"recording.m4a": KindAudio,
			"report.pdf":    KindPDF,
		}
		for filename, want := range cases {
			kind, err := Validate(filename, 1024, maxBytes)
			require.NoError(t, err, filename)
			assert.Equal(t, want, kind, filename)
		}
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		_, err := Validate("malware.exe", 1024, maxBytes)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		_, err := Validate("huge.png", maxBytes+1, maxBytes)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects empty files", func(t *testing.T) {
		_, err := Validate("empty.png", 0, maxBytes)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestHTTPUploader(t *testing.T) {
	t.Run("uploads and returns the stored URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			file, header, err := r.FormFile("file")
			require.NoError(t, err)
			defer file.Close()
			assert.Equal(t, "photo.png", header.Filename)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"url": "https://cdn.example.test/photo.png"}`))
		}))
		defer server.Close()

		uploader := NewHTTPUploader(server.URL, 10<<20)
		upload, err := uploader.Upload(context.Background(), "photo.png", []byte("fake-png-bytes"))
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.test/photo.png", upload.URL)
		assert.Equal(t, KindImage, upload.Kind)
	})

	t.Run("validation failures never reach the endpoint", func(t *testing.T) {
		called := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		defer server.Close()

		uploader := NewHTTPUploader(server.URL, 10<<20)
		_, err := uploader.Upload(context.Background(), "malware.exe", []byte("nope"))
		require.Error(t, err)
		assert.False(t, called)
	})

	t.Run("surfaces endpoint failures", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "disk full", http.StatusInsufficientStorage)
		}))
		defer server.Close()

		uploader := NewHTTPUploader(server.URL, 10<<20)
		_, err := uploader.Upload(context.Background(), "photo.png", []byte("fake"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
