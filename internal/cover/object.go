package cover

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
)

// ObjectStorage defines the object operations covers need across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// Object uploads covers to object storage and returns their public URL.
type Object struct {
	backend  ObjectStorage
	baseURL  string
	maxBytes int64
}

// NewObject wraps backend. Covers are reachable at baseURL + "/" + key.
func NewObject(backend ObjectStorage, baseURL string, maxBytes int64) *Object {
	return &Object{
		backend:  backend,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}
}

// Key returns the object key for a listing's cover, e.g. "covers/b1.png".
func Key(bookID, ext string) string {
	return "covers/" + bookID + ext
}

// Resolve uploads data under Key(bookID, ext) and returns its URL.
func (o *Object) Resolve(ctx context.Context, bookID string, data []byte) (string, error) {
	mt, err := sniff(data, o.maxBytes)
	if err != nil {
		return "", err
	}

	key := Key(bookID, mt.Extension())
	if err := o.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mt.String()); err != nil {
		return "", fmt.Errorf("upload %s to %s: %w", key, o.backend.Bucket(), err)
	}
	return o.baseURL + "/" + key, nil
}

// Close closes the backend if it holds a client connection.
func (o *Object) Close() error {
	if c, ok := o.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
