package store

import (
	"context"
	"time"
)

// Store holds derivative files. Paths handed to and returned by a Store are
// local paths under Root, whatever the backing medium.
type Store interface {
	Root() string
	// Prepare makes sure the store can accept writes.
	Prepare(ctx context.Context) error
	// List returns every derivative currently stored, sorted.
	List(ctx context.Context) ([]string, error)
	Put(ctx context.Context, req *PutRequest) error
	Delete(ctx context.Context, path string) error
}

type PutRequest struct {
	Path string
	Body []byte
	// ModTime, when set, is recorded as the derivative's capture time.
	ModTime time.Time
}
