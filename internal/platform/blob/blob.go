// Package blob stores the binary attachments captured by the registration wizard.
package blob

import (
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend.
type Driver string

const (
	DriverMemory Driver = "memory" // in-process, default for dev and tests
	DriverS3     Driver = "s3"     // S3 / MinIO compatible
)

// PutOptions carries optional object attributes.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is the minimal S3-like surface the attachment slots need.
type Store interface {
	// Put stores a new blob at key and fails if the key already exists.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	// Get returns the blob metadata and a reader over its bytes; ErrNotFound when missing.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	// Delete removes a blob and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)
	Driver() Driver
}

var (
	// ErrNotFound is returned when a key has no blob.
	ErrNotFound = errors.New("blob not found")
	// ErrExists is returned by Put for an occupied key.
	ErrExists = errors.New("blob already exists")
)
