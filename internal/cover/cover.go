package cover

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/roach88/shelfswap/internal/config"
)

var (
	// ErrEmpty is returned for a zero-length upload.
	ErrEmpty = errors.New("cover is empty")

	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("cover exceeds size limit")

	// ErrNotImage is returned when the content is not an image.
	ErrNotImage = errors.New("cover is not an image")
)

// Resolver turns uploaded cover bytes into a storable reference.
// Implements engine.CoverResolver.
type Resolver interface {
	Resolve(ctx context.Context, bookID string, data []byte) (string, error)
}

// sniff validates data and returns its detected MIME type.
func sniff(data []byte, maxBytes int64) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(data), maxBytes)
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
	}
	return mt, nil
}

// Inline stores covers as data: URIs.
type Inline struct {
	MaxBytes int64 // Zero means no limit
}

// Resolve returns "data:<mime>;base64,<payload>".
func (r Inline) Resolve(ctx context.Context, bookID string, data []byte) (string, error) {
	mt, err := sniff(data, r.MaxBytes)
	if err != nil {
		return "", err
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// New builds the Resolver selected by cfg. Object storage backends are
// connected and their bucket is created if missing.
func New(ctx context.Context, cfg config.CoverConfig) (Resolver, error) {
	switch cfg.Backend {
	case "", config.CoverInline:
		return Inline{MaxBytes: cfg.MaxBytes}, nil

	case config.CoverMinio:
		backend, err := NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("connect minio: %w", err)
		}
		return newObjectResolver(ctx, backend, cfg.PublicBaseURL, cfg.MaxBytes)

	case config.CoverGCS:
		backend, err := NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("connect gcs: %w", err)
		}
		baseURL := cfg.PublicBaseURL
		if baseURL == "" {
			baseURL = "https://storage.googleapis.com/" + backend.Bucket()
		}
		return newObjectResolver(ctx, backend, baseURL, cfg.MaxBytes)

	default:
		return nil, fmt.Errorf("unknown cover backend %q", cfg.Backend)
	}
}

func newObjectResolver(ctx context.Context, backend ObjectStorage, baseURL string, maxBytes int64) (*Object, error) {
	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", backend.Bucket(), err)
	}
	return NewObject(backend, baseURL, maxBytes), nil
}
