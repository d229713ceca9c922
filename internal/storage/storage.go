// Package storage defines the adapter abstraction over the remote backends
// an upload can land on: an S3-compatible object store (Cloudflare R2), a
// Telegram channel driven through the bot API, or a legacy third-party
// image host. Each adapter turns a byte payload into a stable reference
// (URL or file identifier) that becomes the canonical record key.
package storage

import (
	"context"
	"errors"
)

// Backend names, matching the storage ENUM in the schema.
const (
	BackendR2       = "r2"
	BackendTelegram = "telegram"
	BackendLegacy   = "legacy"
)

// ErrNoFileID is returned when the bot API accepted the upload but its
// response carried no file identifier. The asset may or may not exist
// remotely; the caller treats this as an upstream (502) failure.
var ErrNoFileID = errors.New("upstream response missing file identifier")

// Upload is the payload handed to an adapter.
type Upload struct {
	// FileName is the client-declared original filename.
	FileName string

	// ContentType is the client-declared MIME type. Adapters may use it to
	// pick an upstream endpoint; none of them trust it beyond that.
	ContentType string

	// Data is the full file content.
	Data []byte
}

// Object is the stable reference an adapter returns for a stored upload.
type Object struct {
	// URL is the canonical public reference. For the bot backend this is a
	// path built from the file identifier rather than a direct link.
	URL string

	// FileID is the backend-internal identifier (bot API file_id), when the
	// backend has one.
	FileID string

	// MessageID and ChatID locate the bot message for later retraction.
	MessageID int64
	ChatID    string

	// FileName echoes the stored name when the backend reports one.
	FileName string
}

// Adapter is a single remote storage backend.
type Adapter interface {
	// Name returns the backend tag recorded in logs and the asset index.
	Name() string

	// FormField returns the multipart field name this backend's upload
	// endpoint expects.
	FormField() string

	// Configured reports whether the backend has the credentials it needs.
	// The intake pipeline refuses uploads to unconfigured backends before
	// doing any other work.
	Configured() bool

	// Put stores the upload and returns its stable reference.
	Put(ctx context.Context, up Upload) (*Object, error)

	// Retract removes a previously stored object, best effort. Callers
	// swallow the error; backends without a delete primitive return nil.
	Retract(ctx context.Context, obj *Object) error

	// ResolveURL returns a publicly fetchable URL for the object, suitable
	// for handing to the moderation service. May require an extra upstream
	// round-trip (bot API getFile).
	ResolveURL(ctx context.Context, obj *Object) (string, error)
}
