// Package media validates attachments and uploads them to the configured
// storage endpoint. The core only ever stores the returned URL and kind.
package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	dErrors "campusvoice/pkg/domain-errors"
)

// Kind is the broad attachment category clients render differently.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindPDF   Kind = "pdf"
)

var extensionKinds = map[string]Kind{
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".mp4":  KindVideo,
	".webm": KindVideo,
	".mov":  KindVideo,
	".mp3":  KindAudio,
	".wav":  KindAudio,
	".ogg":  KindAudio,
	".m4a":  KindAudio,
	".pdf":  KindPDF,
}

// Validate checks an attachment's type and size before any upload happens.
func Validate(filename string, size, maxBytes int64) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := extensionKinds[ext]
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported file type: only images, video, audio, and PDF are allowed")
	}
	if size <= 0 {
		return "", dErrors.New(dErrors.CodeValidation, "file is empty")
	}
	if size > maxBytes {
		return "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("file exceeds the %d MB limit", maxBytes>>20))
	}
	return kind, nil
}

// Upload is the stored result of one attachment.
type Upload struct {
	URL  string `json:"url"`
	Kind Kind   `json:"kind"`
}

// Uploader stores a validated attachment and returns where it lives.
type Uploader interface {
	Upload(ctx context.Context, filename string, content []byte) (Upload, error)
}
