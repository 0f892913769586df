// Package archive stores fetched pages in a blob store, keyed by content digest.
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/JakeFAU/roster-crawler/internal/roster"
)

const defaultContentType = "text/html; charset=utf-8"

// Archiver writes raw page bodies to a roster.BlobStore.
type Archiver struct {
	blobs  roster.BlobStore
	prefix string
	now    func() time.Time
}

// Option customizes an Archiver.
type Option func(*Archiver)

// WithClock overrides the time source used for date partitions.
func WithClock(now func() time.Time) Option {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

// New builds an Archiver writing beneath prefix.
func New(blobs roster.BlobStore, prefix string, opts ...Option) (*Archiver, error) {
	if blobs == nil {
		return nil, errors.New("archive: blob store is required")
	}
	a := &Archiver{
		blobs:  blobs,
		prefix: path.Clean("/" + prefix)[1:],
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Digest returns the hex SHA-256 of body.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// Path returns the object path for a page body fetched in mode at t.
func (a *Archiver) Path(mode roster.Mode, t time.Time, body []byte) string {
	t = t.UTC()
	return path.Join(
		a.prefix,
		string(mode),
		fmt.Sprintf("%04d", t.Year()),
		fmt.Sprintf("%02d", int(t.Month())),
		fmt.Sprintf("%02d", t.Day()),
		Digest(body)+".html",
	)
}

// Archive stores the page and returns the blob URI.
func (a *Archiver) Archive(ctx context.Context, mode roster.Mode, page roster.Page) (string, error) {
	contentType := page.Headers.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}
	objectPath := a.Path(mode, a.now(), page.Body)
	uri, err := a.blobs.PutObject(ctx, objectPath, contentType, bytes.NewReader(page.Body))
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", page.URL, err)
	}
	return uri, nil
}
