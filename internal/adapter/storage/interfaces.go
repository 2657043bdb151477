// Package storage defines the interfaces for artifact storage backends.
// The export step writes Parquet snapshots through these interfaces so the
// backend (local file system today) stays swappable.
package storage

import (
	"context"
	"io"
)

// Connection is one named storage backend.
type Connection interface {
	// Upload writes data to the given bucket and object name. contentType
	// is the MIME type of the data.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Download returns a reader for the object. The caller must close it.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for every object under the prefix.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject removes the object. Missing objects are not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error

	Close() error
	Type() string
	Name() string
}

// Provider manages the lifecycle of named storage connections.
type Provider interface {
	GetConnection(name string) (Connection, error)
	CloseAll() error
	Type() string
}
