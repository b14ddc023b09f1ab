package port

import (
	"context"
	"io"
	"time"
)

// ArchivedObject is a rendered result written to the archive. Key is relative
// to the store's configured prefix.
type ArchivedObject struct {
	Key          string
	Body         io.Reader
	Size         int64
	ContentType  string
	// DownloadName is offered to browsers through Content-Disposition.
	DownloadName string
	RequestID    string
}

// StoredObject describes a successful write. Key includes the prefix.
type StoredObject struct {
	Key      string
	Location string
	ETag     string
}

// ResultStore is the object store behind the result archive. The bucket and
// key prefix are fixed when the store is built.
type ResultStore interface {
	Put(ctx context.Context, obj ArchivedObject) (*StoredObject, error)
	Remove(ctx context.Context, key string) error
	DownloadURL(ctx context.Context, key, downloadName string, expiry time.Duration) (string, error)
	CheckBucket(ctx context.Context) error
}
